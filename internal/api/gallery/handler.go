// Package gallery serves the list of saved images.
package gallery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/api/middleware"
	"github.com/liliang-cn/imagestudio/internal/domain"
)

// Service lists the images directory
type Service interface {
	ListImages(ctx context.Context) ([]domain.GalleryImage, error)
	Stats(ctx context.Context) (*domain.GalleryStats, error)
}

// Handler handles gallery requests
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new gallery handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers gallery routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/images", h.ListImages)
	r.GET("/stats", h.Stats)
}

// ListImages returns every saved image, newest first
func (h *Handler) ListImages(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	start := time.Now()

	images, err := h.service.ListImages(c.Request.Context())
	if err != nil {
		h.logger.Error("Gallery error", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Failed to load gallery",
			"message":   err.Error(),
			"requestId": requestID,
		})
		return
	}

	h.logger.Info("Gallery loaded",
		zap.String("request_id", requestID),
		zap.Int("images", len(images)),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"images":    images,
		"total":     len(images),
		"requestId": requestID,
	})
}

// Stats returns aggregate counts over the gallery
func (h *Handler) Stats(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Gallery stats error", zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Failed to load gallery statistics",
			"message":   err.Error(),
			"requestId": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"requestId": requestID,
	})
}
