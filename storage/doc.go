// Package storage provides a provider-agnostic file upload service.
//
// The package includes:
//   - A Provider interface abstracting storage backends
//   - Local filesystem, Amazon S3, Cloudinary, and Uploadcare providers
//   - MIME category expansion and constraint-based file validation
//   - A Service that validates files and uploads them concurrently
//
// Providers are selected by name from the service configuration and
// instantiated lazily on first use. Each provider owns its public URL
// scheme: the URL returned by an upload is the handle later passed to
// Delete, so callers never touch backend keys directly.
//
// Example usage:
//
//	import "github.com/Gugulethu-Nyoni/semantq-storage/storage"
//
//	cfg := storage.DefaultConfig()
//	cfg.Provider = storage.ProviderS3
//	cfg.S3 = storage.S3Config{
//	    Bucket:      "my-bucket",
//	    Region:      "us-east-1",
//	    AccessKeyID: "key",
//	    SecretKey:   "secret",
//	}
//
//	svc, err := storage.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	// In HTTP handler
//	f, err := storage.FromMultipart(r.MultipartForm.File["avatar"][0])
//	if err != nil {
//	    return err
//	}
//
//	res, err := svc.Upload(ctx, f, storage.UploadParams{
//	    Folder:       "avatars",
//	    MaxFileSize:  "5MB",
//	    AllowedTypes: storage.ExpandCategories([]string{"image"}),
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Later, remove the file by its public URL
//	if err := svc.Delete(ctx, res.URL); err != nil {
//	    return err
//	}
package storage
