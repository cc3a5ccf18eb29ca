package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/api"
	"github.com/liliang-cn/imagestudio/internal/config"
	"github.com/liliang-cn/imagestudio/internal/logging"
	"github.com/liliang-cn/imagestudio/internal/provider"
	"github.com/liliang-cn/imagestudio/internal/repository"
	"github.com/liliang-cn/imagestudio/internal/service"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "imagestudio",
	Short:        "Web studio for generating images with OpenAI",
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	paths, err := config.ResolvePaths(cfg.Storage)
	if err != nil {
		return err
	}

	store := storage.NewImageStore(paths.ImagesDir, logger)
	if err := store.EnsureDir(); err != nil {
		return err
	}

	openai := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	}, logger)

	sessionRepo := repository.NewSessionRepository()

	generationService := service.NewGenerationService(cfg, openai, store, logger)
	chatService := service.NewChatService(
		cfg,
		sessionRepo,
		openai,
		service.NewImageOutputProcessor(store, logger),
		logger,
	)
	galleryService := service.NewGalleryService(store, []string{"gpt-image-1", cfg.OpenAI.ChatModel}, logger)

	router, err := api.SetupRouter(generationService, chatService, galleryService, api.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		ImagesDir:    paths.ImagesDir,
		PublicDir:    paths.PublicDir,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Image generation can take minutes; zero means no cap
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting imagestudio server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
			zap.String("images_dir", paths.ImagesDir),
			zap.String("public_dir", paths.PublicDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
