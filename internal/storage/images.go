package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/logging"
)

// URLPrefix is where saved images are served from
const URLPrefix = "/images"

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// SavedImage describes a file written by the ImageStore
type SavedImage struct {
	Filename      string
	Path          string
	LocalImageURL string
	Size          int64
	ContentType   string
}

// FileEntry is an image file found by Scan
type FileEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// ImageStore keeps generated images in a single directory
type ImageStore struct {
	dir    string
	client *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an ImageStore
type Option func(*ImageStore)

// WithClock replaces the time source used for filenames
func WithClock(now func() time.Time) Option {
	return func(s *ImageStore) { s.now = now }
}

// NewImageStore creates a store rooted at dir
func NewImageStore(dir string, logger *zap.Logger, opts ...Option) *ImageStore {
	s := &ImageStore{
		dir: dir,
		// One attempt per download; a failure is final for the request.
		client: resty.New().SetRetryCount(0),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the images directory
func (s *ImageStore) Dir() string {
	return s.dir
}

// EnsureDir creates the images directory if needed
func (s *ImageStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}
	return nil
}

// NewFilename derives a filename for an image generated now
func (s *ImageStore) NewFilename(p FilenameParams) string {
	return EncodeFilename(p, s.now())
}

// URLFor returns the public URL of a saved file
func URLFor(filename string) string {
	return path.Join(URLPrefix, filename)
}

// Download fetches url and stores the body under filename. The file is
// removed again if anything goes wrong after it was created.
func (s *ImageStore) Download(ctx context.Context, url, filename string) (*SavedImage, error) {
	log := logging.For(ctx, s.logger)
	target, err := s.pathFor(filename)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	log.Info("Downloading image", zap.String("url", truncate(url, 80)), zap.String("path", target))
	start := time.Now()

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		log.Error("Image download failed", zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode())
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create image file: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target)
		log.Error("Image download interrupted", zap.Error(err))
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	mtype, err := mimetype.DetectFile(target)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		os.Remove(target)
		return nil, fmt.Errorf("%w: downloaded content is not an image", domain.ErrInvalidImageData)
	}

	log.Info("Image downloaded",
		zap.Int64("bytes", n),
		zap.String("content_type", mtype.String()),
		zap.Duration("duration", time.Since(start)),
	)

	return &SavedImage{
		Filename:      filename,
		Path:          target,
		LocalImageURL: URLFor(filename),
		Size:          n,
		ContentType:   mtype.String(),
	}, nil
}

// SaveBase64 decodes data and writes it under filename
func (s *ImageStore) SaveBase64(ctx context.Context, data, filename string) (*SavedImage, error) {
	log := logging.For(ctx, s.logger)
	target, err := s.pathFor(filename)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageData, err)
	}
	mtype := mimetype.Detect(raw)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: payload is %s", domain.ErrInvalidImageData, mtype.String())
	}

	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := os.WriteFile(target, raw, 0644); err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	log.Info("Image saved",
		zap.String("filename", filename),
		zap.Int("bytes", len(raw)),
		zap.String("content_type", mtype.String()),
		zap.Duration("duration", time.Since(start)),
	)

	return &SavedImage{
		Filename:      filename,
		Path:          target,
		LocalImageURL: URLFor(filename),
		Size:          int64(len(raw)),
		ContentType:   mtype.String(),
	}, nil
}

// Scan lists the image files in the directory in enumeration order. A
// missing directory is created and yields no entries.
func (s *ImageStore) Scan(ctx context.Context) ([]FileEntry, error) {
	log := logging.For(ctx, s.logger)

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		log.Info("Images directory missing, creating it", zap.String("dir", s.dir))
		return []FileEntry{}, s.EnsureDir()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan images directory: %w", err)
	}

	files := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Warn("Skipping unreadable image", zap.String("filename", e.Name()), zap.Error(err))
			continue
		}
		files = append(files, FileEntry{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	log.Debug("Scanned images directory", zap.Int("images", len(files)), zap.Int("entries", len(entries)))
	return files, nil
}

func (s *ImageStore) pathFor(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("%w: bad filename %q", domain.ErrInvalidRequest, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
