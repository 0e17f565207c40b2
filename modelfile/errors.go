package modelfile

import "errors"

// Package-specific errors
var (
	// ErrMissingStorage is returned when a service is constructed without a storage backend
	ErrMissingStorage = errors.New("storage service is required")

	// ErrMissingModel is returned when a service is constructed without a model name
	ErrMissingModel = errors.New("model name is required")
)
