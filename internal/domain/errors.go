package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoImageData indicates the provider answered without an image
	ErrNoImageData = errors.New("no image data returned from provider")
	// ErrInvalidImageData indicates an image payload that cannot be decoded
	ErrInvalidImageData = errors.New("invalid image data")
)
