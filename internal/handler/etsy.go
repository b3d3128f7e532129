package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status handles GET /api/etsy/status
func (h *Handler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		respondError(c, "etsy status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Connect handles POST /api/etsy/connect
func (h *Handler) Connect(c *gin.Context) {
	authURL, err := h.service.Connect(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		respondError(c, "etsy connect", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// Callback handles GET /api/etsy/callback, the OAuth redirect target
func (h *Handler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason, "description": c.Query("error_description")})
		return
	}

	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state and code are required"})
		return
	}

	userID, status, err := h.service.CompleteConnect(c.Request.Context(), state, code)
	if err != nil {
		respondError(c, "etsy callback", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "connected": status.Connected, "shop": status.Shop})
}

// Disconnect handles POST /api/etsy/disconnect
func (h *Handler) Disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), c.GetString(userIDKey)); err != nil {
		respondError(c, "etsy disconnect", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Etsy account disconnected"})
}
