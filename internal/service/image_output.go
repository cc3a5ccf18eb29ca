package service

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/logging"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

const minBase64ImageLen = 100

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// ValidateBase64Image reports whether s looks like a base64 image payload
func ValidateBase64Image(s string) bool {
	return len(s) > minBase64ImageLen && base64Pattern.MatchString(s)
}

// ImageOutputProcessor persists images produced by the image generation
// tool of a conversational reply
type ImageOutputProcessor struct {
	store  *storage.ImageStore
	logger *zap.Logger
}

// NewImageOutputProcessor creates a new processor
func NewImageOutputProcessor(store *storage.ImageStore, logger *zap.Logger) *ImageOutputProcessor {
	return &ImageOutputProcessor{store: store, logger: logger}
}

// Process saves the first image generation output in items. It returns
// nil without error when the reply carries no image data.
func (p *ImageOutputProcessor) Process(ctx context.Context, items []domain.OutputItem, params storage.FilenameParams) (*storage.SavedImage, error) {
	log := logging.For(ctx, p.logger)

	var images []domain.ImageGenerationOutput
	for _, item := range items {
		if img, ok := item.(domain.ImageGenerationOutput); ok {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		log.Debug("No image outputs to process")
		return nil, nil
	}

	first := images[0]
	if first.Result == "" {
		log.Warn("Image output has no data", zap.String("output_id", first.ID), zap.String("status", first.Status))
		return nil, nil
	}
	if !ValidateBase64Image(first.Result) {
		return nil, fmt.Errorf("%w: image output %s is not base64", domain.ErrInvalidImageData, first.ID)
	}

	log.Info("Processing generated image",
		zap.Int("outputs", len(images)),
		zap.Int("base64_len", len(first.Result)),
	)

	if params.Model == "" {
		params.Model = "gpt-image-1"
	}
	if params.Size == "" {
		params.Size = "1024x1024"
	}
	if params.Quality == "" {
		params.Quality = "low"
	}
	if params.Prompt == "" {
		params.Prompt = "chat_image"
	}

	return p.store.SaveBase64(ctx, first.Result, p.store.NewFilename(params))
}
