package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider stores files on the local filesystem. All operations
// are confined to the configured base directory to prevent path
// traversal. It is safe for concurrent use.
type LocalProvider struct {
	baseDir string
	baseURL string
}

func localFactory(_ context.Context, cfg Config) (Provider, error) {
	return NewLocalProvider(cfg.Local)
}

// NewLocalProvider creates a filesystem-backed provider. The base
// directory is created if it does not exist; it defaults to "uploads"
// and the public base URL to "/uploads".
func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "uploads"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "/uploads"
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve base directory: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(absBaseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create base directory: %v", ErrInvalidConfig, err)
	}

	return &LocalProvider{
		baseDir: absBaseDir,
		baseURL: baseURL,
	}, nil
}

func (p *LocalProvider) Name() string { return ProviderLocal }

// Upload writes the file under a collision-free key inside the base
// directory and returns its public URL.
func (p *LocalProvider) Upload(ctx context.Context, f *File, opts UploadOptions) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if f == nil {
		return nil, ErrNilFile
	}

	key := ObjectKey(opts.Folder, f.Name)
	absPath, err := p.resolvePath(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := os.WriteFile(absPath, f.Content, 0644); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	return &Result{
		URL:      p.baseURL + "/" + key,
		Key:      key,
		Name:     f.Name,
		Size:     int64(len(f.Content)),
		MIMEType: f.MIMEType,
		Provider: ProviderLocal,
	}, nil
}

// Delete removes the file addressed by its public URL.
func (p *LocalProvider) Delete(ctx context.Context, fileURL string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	key, err := p.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	absPath, err := p.resolvePath(key)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, fileURL)
		}
		return fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, fileURL)
	}

	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err)
	}
	return nil
}

// keyFromURL extracts the storage key from a public URL. Accepts
// absolute URLs, base-URL-prefixed paths, and bare keys.
func (p *LocalProvider) keyFromURL(fileURL string) (string, error) {
	if fileURL == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidFileURL)
	}

	path := fileURL
	if u, err := url.Parse(fileURL); err == nil && u.Scheme != "" {
		path = u.Path
	}

	basePath := p.baseURL
	if u, err := url.Parse(p.baseURL); err == nil && u.Scheme != "" {
		basePath = u.Path
	}
	if basePath != "" {
		if after, ok := strings.CutPrefix(path, basePath+"/"); ok {
			path = after
		}
	}

	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileURL, fileURL)
	}
	return path, nil
}

// resolvePath joins key with the base directory and rejects anything
// that escapes it.
func (p *LocalProvider) resolvePath(key string) (string, error) {
	absPath, err := filepath.Abs(filepath.Join(p.baseDir, filepath.Clean(key)))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	if !strings.HasPrefix(absPath, p.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	return absPath, nil
}
