// Package direct serves single prompt image generation.
package direct

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/api/middleware"
	"github.com/liliang-cn/imagestudio/internal/domain"
)

// Generator creates and saves one image
type Generator interface {
	Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.GenerateImageResult, error)
}

// Handler handles direct generation requests
type Handler struct {
	generator Generator
	logger    *zap.Logger
}

// NewHandler creates a new direct generation handler
func NewHandler(generator Generator, logger *zap.Logger) *Handler {
	return &Handler{generator: generator, logger: logger}
}

// RegisterRoutes registers direct generation routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/generate-image", h.GenerateImage)
}

// GenerateImage generates an image from a prompt and saves it locally
func (h *Handler) GenerateImage(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))
	start := time.Now()

	var req domain.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("Invalid generate request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		log.Warn("Generate request without prompt")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}

	res, err := h.generator.Generate(c.Request.Context(), req.Prompt, domain.GenerateOptions{
		Model:        req.Model,
		Size:         req.Size,
		Quality:      req.Quality,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		log.Error("Image generation failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate image",
			"message": err.Error(),
		})
		return
	}

	log.Info("Image generated",
		zap.String("filename", res.Filename),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, res)
}
