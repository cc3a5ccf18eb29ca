package domain

import "time"

// GenerateImageRequest is the request body of a direct generation
type GenerateImageRequest struct {
	Prompt       string `json:"prompt"`
	Model        string `json:"model,omitempty"`
	Size         string `json:"size,omitempty"`
	Quality      string `json:"quality,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// GenerateOptions are the optional knobs of a direct generation
type GenerateOptions struct {
	Model        string
	Size         string
	Quality      string
	SystemPrompt string
}

// GenerateImageResult describes an image that was generated and saved
type GenerateImageResult struct {
	ImageURL      string    `json:"imageUrl,omitempty"`
	LocalImageURL string    `json:"localImageUrl"`
	Filename      string    `json:"filename"`
	SavedAt       time.Time `json:"savedAt"`
	Model         string    `json:"model"`
	Size          string    `json:"size"`
	Quality       string    `json:"quality"`
	FinalPrompt   string    `json:"finalPrompt"`
}
