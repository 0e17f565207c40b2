package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Gugulethu-Nyoni/semantq-storage/storage"
)

// MockProvider is a mock implementation of the Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Upload(ctx context.Context, f *storage.File, opts storage.UploadOptions) (*storage.Result, error) {
	args := m.Called(ctx, f, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Result), args.Error(1)
}

func (m *MockProvider) Delete(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

func resultFor(f *storage.File, key string) *storage.Result {
	return &storage.Result{
		URL:      "https://cdn.example.com/" + key,
		Key:      key,
		Name:     f.Name,
		Size:     f.Size,
		MIMEType: f.MIMEType,
		Provider: "mock",
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("known providers", func(t *testing.T) {
		t.Parallel()
		for _, name := range storage.Providers() {
			cfg := storage.DefaultConfig()
			cfg.Provider = name

			svc, err := storage.New(cfg)
			require.NoError(t, err, "provider %s", name)
			require.NotNil(t, svc)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		cfg := storage.DefaultConfig()
		cfg.Provider = "gopher-drive"

		svc, err := storage.New(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrUnsupportedProvider)
		assert.Contains(t, err.Error(), "gopher-drive")
		assert.Contains(t, err.Error(), "local")
		assert.Nil(t, svc)
	})

	t.Run("config is copied out", func(t *testing.T) {
		t.Parallel()
		cfg := storage.DefaultConfig()
		svc, err := storage.New(cfg)
		require.NoError(t, err)

		got := svc.Config()
		got.Provider = "mutated"
		assert.Equal(t, storage.ProviderLocal, svc.Config().Provider)
	})
}

func TestServiceUpload(t *testing.T) {
	t.Parallel()

	t.Run("nil file", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		res, err := svc.Upload(context.Background(), nil, storage.UploadParams{})
		assert.ErrorIs(t, err, storage.ErrNilFile)
		assert.Nil(t, res)
		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("successful upload uses default folder", func(t *testing.T) {
		t.Parallel()
		f := testFile("photo.png", "image/png", 100)

		mockProvider := new(MockProvider)
		mockProvider.On("Upload",
			mock.Anything,
			f,
			mock.MatchedBy(func(opts storage.UploadOptions) bool {
				return opts.Folder == "uploads"
			}),
		).Return(resultFor(f, "uploads/photo-abc.png"), nil)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		res, err := svc.Upload(context.Background(), f, storage.UploadParams{})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/uploads/photo-abc.png", res.URL)

		mockProvider.AssertExpectations(t)
	})

	t.Run("per-call folder override", func(t *testing.T) {
		t.Parallel()
		f := testFile("photo.png", "image/png", 100)

		mockProvider := new(MockProvider)
		mockProvider.On("Upload",
			mock.Anything,
			f,
			mock.MatchedBy(func(opts storage.UploadOptions) bool {
				return opts.Folder == "avatars/7"
			}),
		).Return(resultFor(f, "avatars/7/photo-abc.png"), nil)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		_, err = svc.Upload(context.Background(), f, storage.UploadParams{Folder: "avatars/7"})
		require.NoError(t, err)

		mockProvider.AssertExpectations(t)
	})

	t.Run("metadata is passed through", func(t *testing.T) {
		t.Parallel()
		f := testFile("photo.png", "image/png", 100)

		mockProvider := new(MockProvider)
		mockProvider.On("Upload",
			mock.Anything,
			f,
			mock.MatchedBy(func(opts storage.UploadOptions) bool {
				return opts.Metadata["owner"] == "42"
			}),
		).Return(resultFor(f, "uploads/photo-abc.png"), nil)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		_, err = svc.Upload(context.Background(), f, storage.UploadParams{
			Metadata: map[string]string{"owner": "42"},
		})
		require.NoError(t, err)

		mockProvider.AssertExpectations(t)
	})

	t.Run("validation runs before dispatch", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		// Default config allows 10MB; this file is bigger.
		f := testFile("huge.bin", "application/octet-stream", 50*1000*1000)
		res, err := svc.Upload(context.Background(), f, storage.UploadParams{})
		assert.ErrorIs(t, err, storage.ErrFileTooLarge)
		assert.Nil(t, res)

		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("per-call size override", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		f := testFile("doc.pdf", "application/pdf", 2000)
		_, err = svc.Upload(context.Background(), f, storage.UploadParams{MaxFileSize: "1KB"})
		assert.ErrorIs(t, err, storage.ErrFileTooLarge)

		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("allowed types restriction", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		f := testFile("clip.mp4", "video/mp4", 100)
		_, err = svc.Upload(context.Background(), f, storage.UploadParams{
			AllowedTypes: []string{"image/*"},
		})
		assert.ErrorIs(t, err, storage.ErrMIMETypeNotAllowed)

		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServiceUploadAll(t *testing.T) {
	t.Parallel()

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.UploadAll(context.Background(), nil, storage.UploadParams{})
		require.NoError(t, err)
		assert.Nil(t, results)

		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("results keep input order", func(t *testing.T) {
		t.Parallel()
		a := testFile("a.png", "image/png", 10)
		b := testFile("b.png", "image/png", 20)
		c := testFile("c.png", "image/png", 30)

		mockProvider := new(MockProvider)
		for _, f := range []*storage.File{a, b, c} {
			mockProvider.On("Upload", mock.Anything, f, mock.Anything).
				Return(resultFor(f, "uploads/"+f.Name), nil)
		}

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.UploadAll(context.Background(), []*storage.File{a, b, c}, storage.UploadParams{})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "a.png", results[0].Name)
		assert.Equal(t, "b.png", results[1].Name)
		assert.Equal(t, "c.png", results[2].Name)

		mockProvider.AssertExpectations(t)
	})

	t.Run("one invalid file blocks the whole batch", func(t *testing.T) {
		t.Parallel()
		good := testFile("ok.png", "image/png", 10)
		bad := testFile("huge.png", "image/png", 50*1000*1000)

		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.UploadAll(context.Background(), []*storage.File{good, bad}, storage.UploadParams{})
		assert.ErrorIs(t, err, storage.ErrFileTooLarge)
		assert.Nil(t, results)

		// Validation failed, so not even the valid file was dispatched.
		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("one failed upload fails the call", func(t *testing.T) {
		t.Parallel()
		a := testFile("a.png", "image/png", 10)
		b := testFile("b.png", "image/png", 20)

		mockProvider := new(MockProvider)
		mockProvider.On("Name").Return("mock").Maybe()
		mockProvider.On("Upload", mock.Anything, a, mock.Anything).
			Return(resultFor(a, "uploads/a.png"), nil).Maybe()
		mockProvider.On("Upload", mock.Anything, b, mock.Anything).
			Return(nil, errors.New("backend exploded"))

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.UploadAll(context.Background(), []*storage.File{a, b}, storage.UploadParams{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "b.png")
		assert.Nil(t, results)
	})

	t.Run("provider returning no result fails the call", func(t *testing.T) {
		t.Parallel()
		f := testFile("a.png", "image/png", 10)

		mockProvider := new(MockProvider)
		mockProvider.On("Name").Return("mock").Maybe()
		mockProvider.On("Upload", mock.Anything, f, mock.Anything).Return(nil, nil)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		_, err = svc.UploadAll(context.Background(), []*storage.File{f}, storage.UploadParams{})
		assert.ErrorIs(t, err, storage.ErrUploadFailed)
	})
}

func TestServiceProcess(t *testing.T) {
	t.Parallel()

	t.Run("fields land in folder suffixed by field name", func(t *testing.T) {
		t.Parallel()
		cover := testFile("cover.png", "image/png", 10)
		manual := testFile("manual.pdf", "application/pdf", 20)

		mockProvider := new(MockProvider)
		mockProvider.On("Upload",
			mock.Anything, cover,
			mock.MatchedBy(func(opts storage.UploadOptions) bool {
				return opts.Folder == "products/7/cover"
			}),
		).Return(resultFor(cover, "products/7/cover/cover.png"), nil)
		mockProvider.On("Upload",
			mock.Anything, manual,
			mock.MatchedBy(func(opts storage.UploadOptions) bool {
				return opts.Folder == "products/7/manual"
			}),
		).Return(resultFor(manual, "products/7/manual/manual.pdf"), nil)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.Process(context.Background(), map[string][]*storage.File{
			"cover":  {cover},
			"manual": {manual},
		}, storage.UploadParams{Folder: "products/7"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		require.Len(t, results["cover"], 1)
		require.Len(t, results["manual"], 1)
		assert.Equal(t, "cover.png", results["cover"][0].Name)

		mockProvider.AssertExpectations(t)
	})

	t.Run("empty fields are skipped", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.Process(context.Background(), map[string][]*storage.File{
			"gallery": {},
		}, storage.UploadParams{})
		require.NoError(t, err)
		assert.Empty(t, results)

		mockProvider.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failing field fails the call", func(t *testing.T) {
		t.Parallel()
		ok := testFile("ok.png", "image/png", 10)
		bad := testFile("bad.png", "image/png", 10)

		mockProvider := new(MockProvider)
		mockProvider.On("Name").Return("mock").Maybe()
		mockProvider.On("Upload", mock.Anything, ok, mock.Anything).
			Return(resultFor(ok, "x/ok.png"), nil).Maybe()
		mockProvider.On("Upload", mock.Anything, bad, mock.Anything).
			Return(nil, errors.New("backend exploded"))

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		results, err := svc.Process(context.Background(), map[string][]*storage.File{
			"good": {ok},
			"bad":  {bad},
		}, storage.UploadParams{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "bad"`)
		assert.Nil(t, results)
	})
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	t.Run("delegates to provider", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		mockProvider.On("Delete", mock.Anything, "https://cdn.example.com/a.png").Return(nil)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), "https://cdn.example.com/a.png"))
		mockProvider.AssertExpectations(t)
	})

	t.Run("wraps provider error", func(t *testing.T) {
		t.Parallel()
		mockProvider := new(MockProvider)
		mockProvider.On("Delete", mock.Anything, mock.Anything).
			Return(storage.ErrFileNotFound)

		svc, err := storage.New(storage.DefaultConfig(), storage.WithProvider(mockProvider))
		require.NoError(t, err)

		err = svc.Delete(context.Background(), "https://cdn.example.com/gone.png")
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrFileNotFound)
		assert.Contains(t, err.Error(), "gone.png")
	})
}

func TestServiceLazyInit(t *testing.T) {
	t.Parallel()

	t.Run("construction succeeds with broken provider config", func(t *testing.T) {
		t.Parallel()
		cfg := storage.DefaultConfig()
		cfg.Provider = storage.ProviderS3
		// Bucket and region left empty: the registry lookup passes, the
		// provider itself cannot be built.
		svc, err := storage.New(cfg)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("init failure is memoized", func(t *testing.T) {
		t.Parallel()
		cfg := storage.DefaultConfig()
		cfg.Provider = storage.ProviderS3

		svc, err := storage.New(cfg)
		require.NoError(t, err)

		f := testFile("a.png", "image/png", 10)

		_, err = svc.Upload(context.Background(), f, storage.UploadParams{})
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrInvalidConfig)

		// Subsequent operations observe the same initialization outcome.
		err = svc.Delete(context.Background(), "https://example.com/a.png")
		assert.ErrorIs(t, err, storage.ErrInvalidConfig)
	})
}
