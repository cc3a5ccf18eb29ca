// Package chat serves the conversational image generation API.
package chat

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

// Service runs chat turns and exposes sessions
type Service interface {
	ProcessMessage(ctx context.Context, sessionID, message string, opts domain.ChatOptions) (*domain.ChatResult, error)
	CreateSession(ctx context.Context) *domain.ChatSession
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)
	ListSessions(ctx context.Context) []*domain.ChatSession
}

// Handler handles chat requests
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new chat handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/message", h.SendMessage)
	r.POST("/session", h.CreateSession)
	r.GET("/session/:sessionId", h.GetSession)
	r.GET("/sessions", h.ListSessions)
}

// SendMessage processes one chat turn
func (h *Handler) SendMessage(c *gin.Context) {
	log := h.requestLogger(c)
	start := time.Now()

	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("Invalid chat request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		log.Warn("Chat request without message")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	res, err := h.service.ProcessMessage(c.Request.Context(), req.SessionID, req.Message, domain.ChatOptions{
		Size:    req.Size,
		Quality: req.Quality,
	})
	if err != nil {
		log.Error("Chat message failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process chat message",
			"message": err.Error(),
		})
		return
	}

	log.Info("Chat message handled",
		zap.String("session_id", res.Session.ID),
		zap.Bool("has_image", res.Response.LocalImageURL != ""),
		zap.Int("messages", len(res.Session.Messages)),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, res)
}

// CreateSession starts an empty session
func (h *Handler) CreateSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CreateSession(c.Request.Context()))
}

// GetSession returns one session
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("sessionId")

	session, err := h.service.GetSession(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		h.requestLogger(c).Info("Session not found", zap.String("session_id", id))
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		h.requestLogger(c).Error("Failed to retrieve session", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListSessions returns all live sessions
func (h *Handler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListSessions(c.Request.Context()))
}

func (h *Handler) requestLogger(c *gin.Context) *zap.Logger {
	return h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))
}
