package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the directories the server works with, resolved once at startup
type Paths struct {
	ProjectRoot string
	PublicDir   string
	ImagesDir   string
}

// ResolvePaths turns the storage settings into absolute directories.
// Relative entries are joined onto the project root, which defaults to the
// working directory.
func ResolvePaths(cfg StorageConfig) (Paths, error) {
	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = wd
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve project root: %w", err)
	}

	return Paths{
		ProjectRoot: root,
		PublicDir:   resolve(root, cfg.PublicDir, "public"),
		ImagesDir:   resolve(root, cfg.ImagesDir, "generated-images"),
	}, nil
}

func resolve(root, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}
