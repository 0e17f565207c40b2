package modelfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Gugulethu-Nyoni/semantq-storage/binder"
	"github.com/Gugulethu-Nyoni/semantq-storage/storage"
)

const (
	// defaultFolderTemplate places files under <model>/<record id>.
	defaultFolderTemplate = "{model}/{id}"

	defaultMaxFileSize = "10MB"
	defaultMaxFiles    = 10

	// formOverhead is the extra body allowance for multipart boundaries
	// and non-file form fields when deriving the request byte cap.
	formOverhead = 1 << 20
)

// Storage is the subset of the storage service the model layer uses.
// *storage.Service satisfies it.
type Storage interface {
	UploadAll(ctx context.Context, files []*storage.File, params storage.UploadParams) ([]*storage.Result, error)
	Delete(ctx context.Context, fileURL string) error
}

// FieldDef declares the upload rules for one form field of a model.
// Zero values defer to the service-level defaults.
type FieldDef struct {
	// MaxSize is the per-file size limit, e.g. "5MB".
	MaxSize string

	// MaxCount is the maximum number of files accepted for this field.
	MaxCount int

	// AllowedTypes lists acceptable MIME types, category names, or
	// wildcard patterns. See storage.ExpandCategories.
	AllowedTypes []string

	// DisallowedTypes lists rejected MIME types or wildcard patterns.
	DisallowedTypes []string

	// AllowedCategories lists acceptable MIME categories by name.
	AllowedCategories []string

	// DisallowedCategories lists rejected MIME categories by name.
	DisallowedCategories []string

	// Metadata is attached to every file stored for this field,
	// forwarded to providers that support object metadata.
	Metadata map[string]string
}

// Config declares how a model's file fields are uploaded.
type Config struct {
	// Model is the model name, used in the folder template.
	Model string

	// Fields maps form field names to their upload rules. Fields absent
	// from the map are ignored during processing.
	Fields map[string]FieldDef

	// FolderTemplate is the storage folder pattern. Placeholders in
	// braces are resolved from the per-call folder context; {model} is
	// provided automatically. Defaults to "{model}/{id}".
	FolderTemplate string

	// MaxFileSize is the per-file size limit applied when a field does
	// not set its own. Empty defers to the storage service default.
	MaxFileSize string

	// MaxFiles is the per-field file count limit applied when a field
	// does not set its own. Zero means 10.
	MaxFiles int
}

// Service uploads, replaces, and removes the files attached to a
// model's records. It is safe for concurrent use.
type Service struct {
	store  Storage
	cfg    Config
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for cleanup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a model file service on top of a storage backend.
func New(store Storage, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrMissingStorage
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}
	if cfg.FolderTemplate == "" {
		cfg.FolderTemplate = defaultFolderTemplate
	}

	s := &Service{
		store:  store,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// UploadLimits derives the aggregate request limits from the field
// definitions: the largest per-file size across fields and the total
// number of files all fields may carry together.
func (s *Service) UploadLimits() (maxBytes int64, maxFiles int) {
	for _, def := range s.cfg.Fields {
		size := s.effectiveMaxSize(def)
		if size == "" {
			size = defaultMaxFileSize
		}
		if n, err := storage.ParseSize(size); err == nil && n > maxBytes {
			maxBytes = n
		}
		maxFiles += s.effectiveMaxCount(def)
	}
	if maxBytes == 0 {
		maxBytes, _ = storage.ParseSize(defaultMaxFileSize)
	}
	if maxFiles == 0 {
		maxFiles = defaultMaxFiles
	}
	return maxBytes, maxFiles
}

// UploadMiddleware returns middleware that caps the request body of
// multipart uploads according to UploadLimits. Non-multipart requests
// pass through untouched. File count limits are enforced later, during
// processing.
func (s *Service) UploadMiddleware() func(http.Handler) http.Handler {
	maxBytes, maxFiles := s.UploadLimits()
	limit := maxBytes*int64(maxFiles) + formOverhead

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if binder.IsMultipart(r) {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProcessRequest extracts all uploaded files from the request and
// processes them. See ProcessFiles.
func (s *Service) ProcessRequest(r *http.Request, fctx storage.FolderContext) (map[string][]*storage.Result, error) {
	files, err := binder.GetAllFiles(r)
	if err != nil {
		return nil, err
	}
	return s.ProcessFiles(r.Context(), files, fctx)
}

// ProcessFiles validates and uploads the files of every configured
// field present in the input. Validation of all fields completes before
// any upload starts; fields then upload concurrently under
// <folder>/<field>, and any failure fails the whole call. Input fields
// without a definition are ignored.
func (s *Service) ProcessFiles(ctx context.Context, files map[string][]*storage.File, fctx storage.FolderContext) (map[string][]*storage.Result, error) {
	folder, err := s.resolveFolder(fctx)
	if err != nil {
		return nil, err
	}

	type fieldBatch struct {
		name  string
		def   FieldDef
		files []*storage.File
	}

	batches := make([]fieldBatch, 0, len(s.cfg.Fields))
	for name, def := range s.cfg.Fields {
		fieldFiles := files[name]
		if len(fieldFiles) == 0 {
			continue
		}

		maxCount := s.effectiveMaxCount(def)
		if len(fieldFiles) > maxCount {
			return nil, fmt.Errorf("field %q: %d files exceeds limit of %d: %w",
				name, len(fieldFiles), maxCount, storage.ErrTooManyFiles)
		}

		cons := s.fieldConstraints(def)
		for _, f := range fieldFiles {
			if err := cons.Validate(f); err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
		}

		batches = append(batches, fieldBatch{name: name, def: def, files: fieldFiles})
	}

	out := make(map[string][]*storage.Result, len(batches))
	if len(batches) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range batches {
		g.Go(func() error {
			results, err := s.store.UploadAll(gctx, b.files, storage.UploadParams{
				Folder:      path.Join(folder, b.name),
				MaxFileSize: s.effectiveMaxSize(b.def),
				Metadata:    b.def.Metadata,
			})
			if err != nil {
				return fmt.Errorf("field %q: %w", b.name, err)
			}
			mu.Lock()
			out[b.name] = results
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteFiles removes previously uploaded files by URL, best effort.
// Failures are logged and returned but never abort remaining deletes.
func (s *Service) DeleteFiles(ctx context.Context, urls []string) (failed []string) {
	if len(urls) == 0 {
		return nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, fileURL := range urls {
		if fileURL == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Delete(ctx, fileURL); err != nil {
				s.logger.Warn("file cleanup failed",
					"model", s.cfg.Model, "url", fileURL, "error", err)
				mu.Lock()
				failed = append(failed, fileURL)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return failed
}

// CleanupReplacedFiles deletes the old URLs that no longer appear in
// the new set, best effort. Typically called after a record update
// replaced some of its files.
func (s *Service) CleanupReplacedFiles(ctx context.Context, oldURLs, newURLs []string) (failed []string) {
	keep := make(map[string]struct{}, len(newURLs))
	for _, u := range newURLs {
		keep[u] = struct{}{}
	}

	var stale []string
	for _, u := range oldURLs {
		if _, ok := keep[u]; !ok {
			stale = append(stale, u)
		}
	}

	return s.DeleteFiles(ctx, stale)
}

// FileRecord flattens upload results into the URL lists a model layer
// persists, keyed by field name.
func FileRecord(results map[string][]*storage.Result) map[string][]string {
	record := make(map[string][]string, len(results))
	for field, fieldResults := range results {
		urls := make([]string, 0, len(fieldResults))
		for _, res := range fieldResults {
			urls = append(urls, res.URL)
		}
		record[field] = urls
	}
	return record
}

// resolveFolder renders the folder template. The model name is always
// available as {model}; caller-provided context keys win on conflict.
func (s *Service) resolveFolder(fctx storage.FolderContext) (string, error) {
	merged := storage.FolderContext{"model": s.cfg.Model}
	for k, v := range fctx {
		merged[k] = v
	}
	return storage.ResolveFolder(s.cfg.FolderTemplate, merged)
}

func (s *Service) fieldConstraints(def FieldDef) storage.Constraints {
	return storage.Constraints{
		MaxSize:              s.effectiveMaxSize(def),
		AllowedTypes:         def.AllowedTypes,
		DisallowedTypes:      def.DisallowedTypes,
		AllowedCategories:    def.AllowedCategories,
		DisallowedCategories: def.DisallowedCategories,
	}
}

func (s *Service) effectiveMaxSize(def FieldDef) string {
	if def.MaxSize != "" {
		return def.MaxSize
	}
	return s.cfg.MaxFileSize
}

func (s *Service) effectiveMaxCount(def FieldDef) int {
	if def.MaxCount > 0 {
		return def.MaxCount
	}
	if s.cfg.MaxFiles > 0 {
		return s.cfg.MaxFiles
	}
	return defaultMaxFiles
}
