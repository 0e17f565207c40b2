package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client defines the S3 operations used by S3Provider.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Provider stores files in Amazon S3 or an S3-compatible service.
// It is safe for concurrent use.
type S3Provider struct {
	client  S3Client
	bucket  string
	region  string
	baseURL string
}

// S3Option defines a function that configures S3Provider construction.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient *http.Client
	s3Client   S3Client
}

// WithS3Client sets a custom pre-configured S3 client.
// Useful for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithS3HTTPClient sets a custom HTTP client for S3 requests.
func WithS3HTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

func s3Factory(ctx context.Context, cfg Config) (Provider, error) {
	return NewS3Provider(ctx, cfg.S3)
}

// NewS3Provider creates an S3-backed provider. Bucket and region are
// required; endpoint and path-style addressing support S3-compatible
// services like MinIO.
func NewS3Provider(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Provider, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: s3 bucket and region are required", ErrInvalidConfig)
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: load aws config: %v", ErrInvalidConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &S3Provider{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: baseURL,
	}, nil
}

func (p *S3Provider) Name() string { return ProviderS3 }

// Upload stores the file under a collision-free key and returns its
// public URL.
func (p *S3Provider) Upload(ctx context.Context, f *File, opts UploadOptions) (*Result, error) {
	if f == nil {
		return nil, ErrNilFile
	}

	key := ObjectKey(opts.Folder, f.Name)
	if strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Content),
		ContentType: aws.String(f.MIMEType),
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return nil, classifyS3Error(err, "upload file")
	}

	return &Result{
		URL:      p.baseURL + "/" + key,
		Key:      key,
		Name:     f.Name,
		Size:     int64(len(f.Content)),
		MIMEType: f.MIMEType,
		Provider: ProviderS3,
	}, nil
}

// Delete removes the object addressed by its public URL. The object is
// verified to exist first so that a stale URL surfaces as
// ErrFileNotFound rather than a silent no-op.
func (p *S3Provider) Delete(ctx context.Context, fileURL string) error {
	key, err := p.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	if _, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classifyS3Error(err, "check file")
	}

	if _, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classifyS3Error(err, "delete file")
	}

	return nil
}

// keyFromURL extracts the object key from a public URL. Accepts the
// configured base URL, virtual-hosted and path-style AWS URLs, custom
// endpoint URLs, and bare keys.
func (p *S3Provider) keyFromURL(fileURL string) (string, error) {
	if fileURL == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidFileURL)
	}

	if after, ok := strings.CutPrefix(fileURL, p.baseURL+"/"); ok {
		return p.cleanKey(after, fileURL)
	}

	u, err := url.Parse(fileURL)
	if err != nil || u.Scheme == "" {
		// Not a URL; treat it as a bare object key.
		return p.cleanKey(fileURL, fileURL)
	}

	path := strings.TrimPrefix(u.Path, "/")
	if strings.HasPrefix(u.Host, p.bucket+".") {
		// Virtual-hosted style: https://bucket.s3.region.amazonaws.com/key
		return p.cleanKey(path, fileURL)
	}
	if after, ok := strings.CutPrefix(path, p.bucket+"/"); ok {
		// Path style: https://s3.region.amazonaws.com/bucket/key
		return p.cleanKey(after, fileURL)
	}

	return p.cleanKey(path, fileURL)
}

func (p *S3Provider) cleanKey(key, fileURL string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileURL, fileURL)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}
	return key, nil
}

// classifyS3Error converts S3 errors to domain-specific errors.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrFileNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
		case "AccessDenied":
			return fmt.Errorf("%w: %s operation", ErrAccessDenied, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s operation", ErrServiceUnavailable, operation)
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
