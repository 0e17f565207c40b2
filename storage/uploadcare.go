package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	ucfile "github.com/uploadcare/uploadcare-go/file"
	"github.com/uploadcare/uploadcare-go/ucare"
	"github.com/uploadcare/uploadcare-go/upload"
)

// uploadcareCDN is the public delivery host for stored files.
const uploadcareCDN = "https://ucarecdn.com"

// UploadcareUploader defines the upload operation used by
// UploadcareProvider. The SDK's upload service satisfies it.
type UploadcareUploader interface {
	File(ctx context.Context, params upload.FileParams) (string, error)
}

// UploadcareFileAdmin defines the file administration operations used
// by UploadcareProvider. The SDK's file service satisfies it.
type UploadcareFileAdmin interface {
	Delete(ctx context.Context, fileID string) (ucfile.Info, error)
}

// UploadcareProvider stores files in Uploadcare and serves them from
// its CDN. It is safe for concurrent use.
type UploadcareProvider struct {
	uploader UploadcareUploader
	files    UploadcareFileAdmin
}

// UploadcareOption defines a function that configures
// UploadcareProvider construction.
type UploadcareOption func(*uploadcareOptions)

type uploadcareOptions struct {
	uploader UploadcareUploader
	files    UploadcareFileAdmin
}

// WithUploadcareUploader sets a custom upload service.
// Useful for testing with mocks.
func WithUploadcareUploader(u UploadcareUploader) UploadcareOption {
	return func(o *uploadcareOptions) {
		o.uploader = u
	}
}

// WithUploadcareFileAdmin sets a custom file administration service.
// Useful for testing with mocks.
func WithUploadcareFileAdmin(f UploadcareFileAdmin) UploadcareOption {
	return func(o *uploadcareOptions) {
		o.files = f
	}
}

func uploadcareFactory(_ context.Context, cfg Config) (Provider, error) {
	return NewUploadcareProvider(cfg.Uploadcare)
}

// NewUploadcareProvider creates an Uploadcare-backed provider. Public
// and secret keys are both required.
func NewUploadcareProvider(cfg UploadcareConfig, opts ...UploadcareOption) (*UploadcareProvider, error) {
	options := &uploadcareOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.uploader == nil || options.files == nil {
		if cfg.PublicKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("%w: uploadcare public and secret keys are required", ErrInvalidConfig)
		}
		client, err := ucare.NewClient(ucare.APICreds{
			SecretKey: cfg.SecretKey,
			PublicKey: cfg.PublicKey,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if options.uploader == nil {
			options.uploader = upload.NewService(client)
		}
		if options.files == nil {
			options.files = ucfile.NewService(client)
		}
	}

	return &UploadcareProvider{
		uploader: options.uploader,
		files:    options.files,
	}, nil
}

func (p *UploadcareProvider) Name() string { return ProviderUploadcare }

// Upload sends the file to Uploadcare with immediate storage and
// returns its CDN URL.
func (p *UploadcareProvider) Upload(ctx context.Context, f *File, opts UploadOptions) (*Result, error) {
	if f == nil {
		return nil, ErrNilFile
	}

	id, err := p.uploader.File(ctx, upload.FileParams{
		Data:        bytes.NewReader(f.Content),
		Name:        f.Name,
		ContentType: f.MIMEType,
		ToStore:     ucare.String("1"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploadcare upload: %w", err)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: uploadcare returned no file ID", ErrUploadFailed)
	}

	return &Result{
		URL:      fmt.Sprintf("%s/%s/%s", uploadcareCDN, id, url.PathEscape(f.Name)),
		Key:      id,
		Name:     f.Name,
		Size:     int64(len(f.Content)),
		MIMEType: f.MIMEType,
		Provider: ProviderUploadcare,
	}, nil
}

// Delete removes the file addressed by its CDN URL or bare file ID.
func (p *UploadcareProvider) Delete(ctx context.Context, fileURL string) error {
	id, err := uploadcareFileID(fileURL)
	if err != nil {
		return err
	}

	if _, err := p.files.Delete(ctx, id); err != nil {
		return fmt.Errorf("uploadcare delete: %w", err)
	}
	return nil
}

// uploadcareFileID extracts the file UUID from a CDN URL or accepts a
// bare UUID.
func uploadcareFileID(fileURL string) (string, error) {
	if fileURL == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidFileURL)
	}

	if id, err := uuid.Parse(fileURL); err == nil {
		return id.String(), nil
	}

	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileURL, fileURL)
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if id, err := uuid.Parse(segment); err == nil {
			return id.String(), nil
		}
	}

	return "", fmt.Errorf("%w: no file ID in %s", ErrInvalidFileURL, fileURL)
}
