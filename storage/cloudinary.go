package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryAPI defines the upload operations used by
// CloudinaryProvider. The SDK's uploader satisfies it.
type CloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, destroyParams uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryProvider stores files in Cloudinary. Images and videos are
// delivered through Cloudinary's media pipeline; everything else is
// stored as a raw asset. It is safe for concurrent use.
type CloudinaryProvider struct {
	api CloudinaryAPI
}

// CloudinaryOption defines a function that configures
// CloudinaryProvider construction.
type CloudinaryOption func(*cloudinaryOptions)

type cloudinaryOptions struct {
	api CloudinaryAPI
}

// WithCloudinaryAPI sets a custom upload API.
// Useful for testing with mocks.
func WithCloudinaryAPI(api CloudinaryAPI) CloudinaryOption {
	return func(o *cloudinaryOptions) {
		o.api = api
	}
}

func cloudinaryFactory(_ context.Context, cfg Config) (Provider, error) {
	return NewCloudinaryProvider(cfg.Cloudinary)
}

// NewCloudinaryProvider creates a Cloudinary-backed provider. Cloud
// name, API key, and API secret are all required.
func NewCloudinaryProvider(cfg CloudinaryConfig, opts ...CloudinaryOption) (*CloudinaryProvider, error) {
	options := &cloudinaryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.api == nil {
		if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
			return nil, fmt.Errorf("%w: cloudinary cloud name, api key, and api secret are required", ErrInvalidConfig)
		}
		cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		options.api = &cld.Upload
	}

	return &CloudinaryProvider{api: options.api}, nil
}

func (p *CloudinaryProvider) Name() string { return ProviderCloudinary }

// Upload sends the file to Cloudinary and returns its delivery URL.
func (p *CloudinaryProvider) Upload(ctx context.Context, f *File, opts UploadOptions) (*Result, error) {
	if f == nil {
		return nil, ErrNilFile
	}

	resourceType := cloudinaryResourceType(f.MIMEType)

	// Image and video public IDs carry no extension; raw IDs keep it so
	// the delivery URL stays downloadable.
	publicID := ObjectKey("", f.Name)
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, filepath.Ext(publicID))
	}

	res, err := p.api.Upload(ctx, bytes.NewReader(f.Content), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       opts.Folder,
		ResourceType: resourceType,
		Overwrite:    api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, res.Error.Message)
	}

	fileURL := res.SecureURL
	if fileURL == "" {
		fileURL = res.URL
	}
	if fileURL == "" {
		return nil, fmt.Errorf("%w: cloudinary returned no URL", ErrUploadFailed)
	}

	size := int64(res.Bytes)
	if size == 0 {
		size = int64(len(f.Content))
	}

	return &Result{
		URL:      fileURL,
		Key:      res.PublicID,
		Name:     f.Name,
		Size:     size,
		MIMEType: f.MIMEType,
		Provider: ProviderCloudinary,
	}, nil
}

// Delete destroys the asset addressed by its delivery URL.
func (p *CloudinaryProvider) Delete(ctx context.Context, fileURL string) error {
	publicID, resourceType, err := cloudinaryPublicID(fileURL)
	if err != nil {
		return err
	}

	res, err := p.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	switch res.Result {
	case "ok":
		return nil
	case "not found":
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileURL)
	default:
		return fmt.Errorf("%w: cloudinary destroy returned %q", ErrFailedToDeleteFile, res.Result)
	}
}

// cloudinaryResourceType maps a MIME type to Cloudinary's resource
// type. Audio is delivered through the video pipeline.
func cloudinaryResourceType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"), strings.HasPrefix(mimeType, "audio/"):
		return "video"
	default:
		return "raw"
	}
}

// cloudinaryPublicID recovers the public ID and resource type from a
// delivery URL of the form
// https://res.cloudinary.com/<cloud>/<resource_type>/upload/v<version>/<public_id>.<ext>.
func cloudinaryPublicID(fileURL string) (string, string, error) {
	u, err := url.Parse(fileURL)
	if err != nil || u.Path == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidFileURL, fileURL)
	}

	path := strings.TrimPrefix(u.Path, "/")
	idx := strings.Index(path, "/upload/")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %s is not a cloudinary delivery URL", ErrInvalidFileURL, fileURL)
	}

	resourceType := "image"
	if before := strings.Split(path[:idx], "/"); len(before) > 0 {
		if rt := before[len(before)-1]; rt == "image" || rt == "video" || rt == "raw" {
			resourceType = rt
		}
	}

	rest := path[idx+len("/upload/"):]
	segments := strings.Split(rest, "/")
	if len(segments) > 1 && isCloudinaryVersion(segments[0]) {
		segments = segments[1:]
	}

	publicID := strings.Join(segments, "/")
	if decoded, err := url.PathUnescape(publicID); err == nil {
		publicID = decoded
	}
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, filepath.Ext(publicID))
	}
	if publicID == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidFileURL, fileURL)
	}

	return publicID, resourceType, nil
}

// isCloudinaryVersion reports whether a path segment is a version
// marker like "v1712345678".
func isCloudinaryVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
