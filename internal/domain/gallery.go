package domain

import "time"

// Image origins recorded in gallery metadata
const (
	ImageTypeDirect  = "direct"
	ImageTypeChat    = "chat"
	ImageTypeUnknown = "unknown"
)

// ImageMetadata is what can be recovered from a saved image's filename
type ImageMetadata struct {
	Model   string `json:"model,omitempty"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Type    string `json:"type"` // direct, chat, unknown
}

// GalleryImage is a saved image as seen by the gallery
type GalleryImage struct {
	Filename   string        `json:"filename"`
	Filepath   string        `json:"filepath"`
	URL        string        `json:"url"`
	Size       int64         `json:"size"`
	CreatedAt  time.Time     `json:"createdAt"`
	ModifiedAt time.Time     `json:"modifiedAt"`
	Metadata   ImageMetadata `json:"metadata"`
}

// GalleryStats aggregates the current gallery
type GalleryStats struct {
	TotalImages    int            `json:"totalImages"`
	TotalSize      int64          `json:"totalSize"`
	TotalSizeHuman string         `json:"totalSizeHuman"`
	ByModel        map[string]int `json:"byModel"`
	ByType         map[string]int `json:"byType"`
	BySize         map[string]int `json:"bySize"`
	ByQuality      map[string]int `json:"byQuality"`
	OldestImage    *time.Time     `json:"oldestImage,omitempty"`
	NewestImage    *time.Time     `json:"newestImage,omitempty"`
}
