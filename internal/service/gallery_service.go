package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/logging"
	"github.com/liliang-cn/imagestudio/internal/storage"
)

// GalleryService exposes the images directory as a gallery. Nothing is
// cached: every call rescans the directory.
type GalleryService struct {
	store      *storage.ImageStore
	chatModels []string
	logger     *zap.Logger
}

// NewGalleryService creates a new gallery service. Images whose model is in
// chatModels are reported as chat images.
func NewGalleryService(store *storage.ImageStore, chatModels []string, logger *zap.Logger) *GalleryService {
	return &GalleryService{store: store, chatModels: chatModels, logger: logger}
}

// ListImages returns all saved images, newest first
func (s *GalleryService) ListImages(ctx context.Context) ([]domain.GalleryImage, error) {
	log := logging.For(ctx, s.logger)

	files, err := s.store.Scan(ctx)
	if err != nil {
		log.Error("Failed to scan images directory", zap.String("dir", s.store.Dir()), zap.Error(err))
		return nil, fmt.Errorf("failed to scan images directory: %w", err)
	}

	images := make([]domain.GalleryImage, 0, len(files))
	for _, f := range files {
		decoded := storage.DecodeFilename(f.Name, s.chatModels)
		created := decoded.GeneratedAt
		if created.IsZero() {
			created = f.ModTime
		}
		images = append(images, domain.GalleryImage{
			Filename:   f.Name,
			Filepath:   f.Path,
			URL:        storage.URLFor(f.Name),
			Size:       f.Size,
			CreatedAt:  created,
			ModifiedAt: f.ModTime,
			Metadata:   decoded.Metadata,
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})

	log.Info("Gallery scanned", zap.Int("images", len(images)))
	return images, nil
}

// Stats aggregates the current gallery
func (s *GalleryService) Stats(ctx context.Context) (*domain.GalleryStats, error) {
	images, err := s.ListImages(ctx)
	if err != nil {
		return nil, err
	}

	stats := ComputeStats(images)
	logging.For(ctx, s.logger).Info("Gallery stats calculated",
		zap.Int("images", stats.TotalImages),
		zap.String("total_size", stats.TotalSizeHuman),
		zap.Int("models", len(stats.ByModel)),
	)
	return stats, nil
}

// ComputeStats folds images into counts per model, type, size and quality
func ComputeStats(images []domain.GalleryImage) *domain.GalleryStats {
	stats := &domain.GalleryStats{
		TotalImages: len(images),
		ByModel:     map[string]int{},
		ByType:      map[string]int{},
		BySize:      map[string]int{},
		ByQuality:   map[string]int{},
	}

	var oldest, newest time.Time
	for i, img := range images {
		stats.TotalSize += img.Size

		md := img.Metadata
		if md.Model != "" {
			stats.ByModel[md.Model]++
		}
		if md.Type != "" {
			stats.ByType[md.Type]++
		}
		if md.Size != "" {
			stats.BySize[md.Size]++
		}
		if md.Quality != "" {
			stats.ByQuality[md.Quality]++
		}

		if i == 0 || img.CreatedAt.Before(oldest) {
			oldest = img.CreatedAt
		}
		if i == 0 || img.CreatedAt.After(newest) {
			newest = img.CreatedAt
		}
	}
	if len(images) > 0 {
		stats.OldestImage = &oldest
		stats.NewestImage = &newest
	}
	stats.TotalSizeHuman = humanize.IBytes(uint64(stats.TotalSize))

	return stats
}
