package storage

import (
	"context"
	"fmt"
	"sort"
)

// UploadOptions carries per-upload parameters handed to a provider.
type UploadOptions struct {
	// Folder is the storage folder (prefix) for the object. Providers
	// treat it as a path under their configured root.
	Folder string

	// Metadata is attached to the stored object where the backend
	// supports it.
	Metadata map[string]string
}

// Result describes a stored file. The caller persists it; this library
// keeps no state of its own.
type Result struct {
	// URL is the public URL of the stored file. It is the handle later
	// passed to Delete.
	URL string

	// Key is the provider-internal identifier (object key, public ID,
	// file UUID).
	Key string

	// Name is the sanitized filename the object was stored under.
	Name string

	// Size is the stored content length in bytes.
	Size int64

	// MIMEType is the stored content type.
	MIMEType string

	// Provider is the name of the backend that stored the file.
	Provider string
}

// Provider is the capability set every storage backend implements.
// Upload transfers a buffered file and returns the canonical result;
// Delete removes a previously uploaded file, recovering the backend key
// from the public URL. Each backend owns its URL scheme.
type Provider interface {
	Name() string
	Upload(ctx context.Context, f *File, opts UploadOptions) (*Result, error)
	Delete(ctx context.Context, fileURL string) error
}

// Factory constructs a provider from the service configuration.
type Factory func(ctx context.Context, cfg Config) (Provider, error)

// providerFactories maps configuration names to constructors. The table
// is fixed at process start; unknown names are rejected when the service
// is constructed, not on first use.
var providerFactories = map[string]Factory{
	ProviderLocal:      localFactory,
	ProviderS3:         s3Factory,
	ProviderCloudinary: cloudinaryFactory,
	ProviderUploadcare: uploadcareFactory,
}

// Providers returns the supported provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// factoryFor resolves a provider name to its constructor.
func factoryFor(name string) (Factory, error) {
	f, ok := providerFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedProvider, name, Providers())
	}
	return f, nil
}
