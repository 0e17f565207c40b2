package binder

import "errors"

// Common binding errors
var (
	ErrInvalidForm          = errors.New("invalid form data")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
