package storage

import "errors"

var (
	// Validation errors
	ErrNilFile            = errors.New("file is nil")
	ErrFileTooLarge       = errors.New("file size exceeds maximum allowed size")
	ErrMIMETypeNotAllowed = errors.New("MIME type is not allowed")
	ErrMIMETypeDisallowed = errors.New("MIME type is explicitly disallowed")
	ErrTooManyFiles       = errors.New("too many files for field")
	ErrInvalidSize        = errors.New("invalid size value")

	// Path and folder errors
	ErrInvalidPath        = errors.New("invalid path") // Prevents path traversal attacks
	ErrMissingPlaceholder = errors.New("folder template placeholder has no value")

	// Provider errors
	ErrUnsupportedProvider = errors.New("unsupported storage provider")
	ErrUploadFailed        = errors.New("provider returned no usable upload result")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrInvalidFileURL      = errors.New("file URL does not belong to this provider")
	ErrFileNotFound        = errors.New("file not found")

	// I/O operation errors - wrapped with context for debugging
	ErrFailedToOpenFile   = errors.New("failed to open file")
	ErrFailedToReadFile   = errors.New("failed to read file")
	ErrFailedToWriteFile  = errors.New("failed to write file")
	ErrFailedToDeleteFile = errors.New("failed to delete file")

	// S3-specific errors for proper error classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	// Configuration errors
	ErrFailedToLoadConfig = errors.New("failed to load configuration")
)
