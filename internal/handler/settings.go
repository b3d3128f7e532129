package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"etsy/lister/internal/domain"
)

// GetSettings handles GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		respondError(c, "get settings", err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SaveSettings handles POST /api/settings. Only the keys present in the body change.
func (h *Handler) SaveSettings(c *gin.Context) {
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.service.SaveSettings(c.Request.Context(), c.GetString(userIDKey), patch)
	if err != nil {
		respondError(c, "save settings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Settings saved successfully",
		"default_price":    settings.DefaultPrice,
		"default_quantity": settings.DefaultQuantity,
		"auto_renew":       settings.AutoRenew,
	})
}
