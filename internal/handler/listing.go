package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"etsy/lister/internal/domain"
)

type confirmRequest struct {
	ProductIDs []string               `json:"productIds" binding:"required,min=1"`
	Settings   domain.ListingDefaults `json:"settings"`
}

// ListingOptions handles GET /api/listing/options. It always answers 200: remote
// failures degrade to built-in options and an advisory message.
func (h *Handler) ListingOptions(c *gin.Context) {
	options := h.service.LoadListingOptions(c.Request.Context(), c.GetString(userIDKey))
	c.JSON(http.StatusOK, options)
}

// Confirm handles POST /api/listing/confirm
func (h *Handler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageID, err := h.service.ConfirmDefaults(c.Request.Context(), c.GetString(userIDKey), req.ProductIDs, req.Settings)
	if err != nil {
		respondError(c, "confirm defaults", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message_id": messageID, "product_count": len(req.ProductIDs)})
}

// ListTemplates handles GET /api/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		respondError(c, "list templates", err)
		return
	}

	if templates == nil {
		templates = []domain.Template{}
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}
