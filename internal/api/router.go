package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/api/chat"
	"github.com/liliang-cn/imagestudio/internal/api/direct"
	"github.com/liliang-cn/imagestudio/internal/api/gallery"
	"github.com/liliang-cn/imagestudio/internal/api/middleware"
	"github.com/liliang-cn/imagestudio/internal/api/prices"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
	ImagesDir    string
	PublicDir    string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	generator direct.Generator,
	chatService chat.Service,
	galleryService gallery.Service,
	cfg RouterConfig,
	logger *zap.Logger,
) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")

	direct.NewHandler(generator, logger).RegisterRoutes(apiGroup)
	chat.NewHandler(chatService, logger).RegisterRoutes(apiGroup.Group("/chat"))
	gallery.NewHandler(galleryService, logger).RegisterRoutes(apiGroup.Group("/gallery"))
	prices.NewHandler().RegisterRoutes(apiGroup.Group("/pricing"))

	// Saved images and the frontend
	if err := SetupStaticRoutes(r, cfg.ImagesDir, cfg.PublicDir); err != nil {
		return nil, err
	}

	return r, nil
}
