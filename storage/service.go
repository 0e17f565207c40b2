package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Gugulethu-Nyoni/semantq-storage/config"
)

// UploadParams are the caller-facing options for Service uploads.
type UploadParams struct {
	// Folder overrides the configured default folder.
	Folder string

	// MaxFileSize overrides the configured default size limit, e.g.
	// "5MB". Empty means the service default applies.
	MaxFileSize string

	// AllowedTypes restricts uploads to matching MIME types. Entries are
	// exact types or wildcard patterns ("image/*", "*/*"). Empty means
	// any type.
	AllowedTypes []string

	// Metadata is passed through to the provider.
	Metadata map[string]string
}

// Service validates files and dispatches them to the configured
// provider. It is safe for concurrent use.
//
// The provider is selected by name when the service is constructed and
// instantiated lazily on first use: concurrent first callers share a
// single initialization and its outcome.
type Service struct {
	cfg     Config
	factory Factory
	logger  *slog.Logger

	initOnce sync.Once
	provider Provider
	initErr  error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for provider lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProvider injects a pre-built provider, bypassing the registry.
// Useful for tests and custom backends.
func WithProvider(p Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// New creates a storage service for the configured provider. An unknown
// provider name fails here, not on first upload.
func New(cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.provider == nil {
		factory, err := factoryFor(cfg.Provider)
		if err != nil {
			return nil, err
		}
		s.factory = factory
	}

	return s, nil
}

// NewFromEnv creates a storage service configured from the default
// configuration file and environment variables, layered over
// DefaultConfig.
func NewFromEnv(opts ...Option) (*Service, error) {
	cfg := DefaultConfig()
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
	}
	return New(cfg, opts...)
}

// Config returns a copy of the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// ensureProvider initializes the provider exactly once. The first
// caller's context is used for initialization; all callers share the
// memoized outcome.
func (s *Service) ensureProvider(ctx context.Context) (Provider, error) {
	s.initOnce.Do(func() {
		if s.provider != nil {
			return
		}
		s.provider, s.initErr = s.factory(ctx, s.cfg)
		if s.initErr != nil {
			s.logger.Error("storage provider initialization failed",
				"provider", s.cfg.Provider, "error", s.initErr)
			return
		}
		s.logger.Debug("storage provider initialized", "provider", s.cfg.Provider)
	})
	return s.provider, s.initErr
}

// Upload validates and stores a single file.
func (s *Service) Upload(ctx context.Context, f *File, params UploadParams) (*Result, error) {
	if f == nil {
		return nil, ErrNilFile
	}
	results, err := s.UploadAll(ctx, []*File{f}, params)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// UploadAll validates and stores a batch of files. Every file is
// validated before any byte is sent; uploads then run concurrently and
// the call fails if any single upload fails. Files already transferred
// when a sibling fails are not rolled back.
func (s *Service) UploadAll(ctx context.Context, files []*File, params UploadParams) ([]*Result, error) {
	if len(files) == 0 {
		return nil, nil
	}

	cons := Constraints{
		MaxSize:      s.maxSizeOr(params.MaxFileSize),
		AllowedTypes: params.AllowedTypes,
	}
	for _, f := range files {
		if err := cons.Validate(f); err != nil {
			return nil, err
		}
	}

	provider, err := s.ensureProvider(ctx)
	if err != nil {
		return nil, err
	}

	opts := UploadOptions{
		Folder:   s.folderOr(params.Folder),
		Metadata: params.Metadata,
	}

	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			res, err := provider.Upload(gctx, f, opts)
			if err != nil {
				return fmt.Errorf("upload %q to %s: %w", f.Name, provider.Name(), err)
			}
			if res == nil || res.URL == "" {
				return fmt.Errorf("upload %q to %s: %w", f.Name, provider.Name(), ErrUploadFailed)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Process uploads a map of field names to files, storing each field
// under the base folder suffixed with the field name. Fields run
// concurrently; any field's failure fails the whole call.
func (s *Service) Process(ctx context.Context, fields map[string][]*File, params UploadParams) (map[string][]*Result, error) {
	base := s.folderOr(params.Folder)

	var mu sync.Mutex
	out := make(map[string][]*Result, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for field, files := range fields {
		if len(files) == 0 {
			continue
		}
		g.Go(func() error {
			fieldParams := params
			fieldParams.Folder = joinFolder(base, field)
			results, err := s.UploadAll(gctx, files, fieldParams)
			if err != nil {
				return fmt.Errorf("field %q: %w", field, err)
			}
			mu.Lock()
			out[field] = results
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Delete removes a previously uploaded file by its public URL.
func (s *Service) Delete(ctx context.Context, fileURL string) error {
	provider, err := s.ensureProvider(ctx)
	if err != nil {
		return err
	}
	if err := provider.Delete(ctx, fileURL); err != nil {
		return fmt.Errorf("delete %s: %w", fileURL, err)
	}
	return nil
}

func (s *Service) maxSizeOr(override string) string {
	if override != "" {
		return override
	}
	return s.cfg.MaxFileSize
}

func (s *Service) folderOr(override string) string {
	if override != "" {
		return override
	}
	return s.cfg.DefaultFolder
}

// joinFolder joins folder segments with "/", skipping empty ones.
func joinFolder(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}
