package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/config"
	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/logging"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

// ImageGenerator produces a single image from a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, p domain.ImageGenerationParams) (*domain.GeneratedImage, error)
}

// GenerationService handles direct (single prompt) image generation
type GenerationService struct {
	generator ImageGenerator
	store     *storage.ImageStore
	defaults  config.GenerationConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	cfg *config.Config,
	generator ImageGenerator,
	store *storage.ImageStore,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		generator: generator,
		store:     store,
		defaults:  cfg.Generation,
		logger:    logger,
		now:       time.Now,
	}
}

// FinalPrompt combines an optional system prompt with the user prompt
func FinalPrompt(prompt, systemPrompt string) string {
	if systemPrompt == "" {
		return prompt
	}
	return fmt.Sprintf("General system prompt:\n%s\n\n Image specific prompt:\n%s", systemPrompt, prompt)
}

// Generate creates an image for prompt and saves it to the images directory
func (s *GenerationService) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.GenerateImageResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	// A generation runs to completion even if the client goes away; the
	// image is already billed once the provider answers.
	ctx = context.WithoutCancel(ctx)

	model := firstNonEmpty(opts.Model, s.defaults.Model)
	size := firstNonEmpty(opts.Size, s.defaults.Size)
	quality := firstNonEmpty(opts.Quality, s.defaults.Quality)
	finalPrompt := FinalPrompt(prompt, opts.SystemPrompt)

	log := logging.For(ctx, s.logger).With(
		zap.String("model", model),
		zap.String("size", size),
		zap.String("quality", quality),
	)
	log.Info("Image generation started",
		zap.String("prompt", prompt),
		zap.Bool("has_system_prompt", opts.SystemPrompt != ""),
	)
	start := time.Now()

	img, err := s.generator.GenerateImage(ctx, domain.ImageGenerationParams{
		Prompt:  finalPrompt,
		Model:   model,
		Size:    size,
		Quality: quality,
	})
	if err != nil {
		return nil, err
	}
	if img == nil || (img.URL == "" && img.B64JSON == "") {
		log.Error("Provider returned no image data")
		return nil, domain.ErrNoImageData
	}

	filename := s.store.NewFilename(storage.FilenameParams{
		Model:   model,
		Size:    size,
		Quality: quality,
		Prompt:  prompt,
	})

	var saved *storage.SavedImage
	if img.URL != "" {
		saved, err = s.store.Download(ctx, img.URL, filename)
	} else {
		saved, err = s.store.SaveBase64(ctx, img.B64JSON, filename)
	}
	if err != nil {
		log.Error("Failed to save generated image", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	log.Info("Image generation completed",
		zap.String("filename", saved.Filename),
		zap.Duration("duration", time.Since(start)),
	)

	return &domain.GenerateImageResult{
		ImageURL:      img.URL,
		LocalImageURL: saved.LocalImageURL,
		Filename:      saved.Filename,
		SavedAt:       s.now(),
		Model:         model,
		Size:          size,
		Quality:       quality,
		FinalPrompt:   finalPrompt,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
