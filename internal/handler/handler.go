package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"etsy/lister/internal/domain"
	"etsy/lister/internal/service"
)

// UserIDHeader carries the authenticated user id set by the gateway in front of the service
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

type ListingService interface {
	Status(ctx context.Context, userID string) (domain.ConnectionStatus, error)
	Connect(ctx context.Context, userID string) (string, error)
	CompleteConnect(ctx context.Context, state, code string) (string, domain.ConnectionStatus, error)
	Disconnect(ctx context.Context, userID string) error
	LoadListingOptions(ctx context.Context, userID string) service.ListingOptions
	ConfirmDefaults(ctx context.Context, userID string, productIDs []string, defaults domain.ListingDefaults) (string, error)
	GetSettings(ctx context.Context, userID string) (domain.UserSettings, error)
	SaveSettings(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.UserSettings, error)
	ListTemplates(ctx context.Context, userID string) ([]domain.Template, error)
}

type Handler struct {
	service ListingService
}

func New(service ListingService) *Handler {
	return &Handler{service: service}
}

// Router builds the gin engine with logging and recovery middleware
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Etsy redirects the browser here, the user is identified by the OAuth state instead
	r.GET("/etsy/callback", h.Callback)

	authed := r.Group("", requireUser())
	{
		authed.GET("/settings", h.GetSettings)
		authed.POST("/settings", h.SaveSettings)

		authed.GET("/etsy/status", h.Status)
		authed.POST("/etsy/connect", h.Connect)
		authed.POST("/etsy/disconnect", h.Disconnect)

		authed.GET("/listing/options", h.ListingOptions)
		authed.POST("/listing/confirm", h.Confirm)
		authed.GET("/templates", h.ListTemplates)
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("Handled request")
	}
}

// respondError maps domain errors to status codes; anything unknown is a 500
func respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidDefaults),
		errors.Is(err, service.ErrNoProducts),
		errors.Is(err, domain.ErrUnknownAuthState):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConnected):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Errorf("❌ %s failed: %v", op, err)
	} else {
		log.Warnf("⚠️ %s rejected: %v", op, err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
