package storage

// Supported provider names for Config.Provider.
const (
	ProviderLocal      = "local"
	ProviderS3         = "s3"
	ProviderCloudinary = "cloudinary"
	ProviderUploadcare = "uploadcare"
)

// Config is the normalized service configuration. It is plain data; use
// the config package to populate it from a YAML file and the
// environment, or fill it directly.
type Config struct {
	// Provider selects the storage backend by name.
	Provider string `env:"STORAGE_PROVIDER" yaml:"provider"`

	// MaxFileSize is the default per-file size limit for uploads that do
	// not set their own, e.g. "10MB".
	MaxFileSize string `env:"STORAGE_MAX_FILE_SIZE" yaml:"maxFileSize"`

	// MaxFiles is the default per-field file count limit.
	MaxFiles int `env:"STORAGE_MAX_FILES" yaml:"maxFiles"`

	// DefaultFolder receives uploads that do not name a folder.
	DefaultFolder string `env:"STORAGE_DEFAULT_FOLDER" yaml:"defaultFolder"`

	Local      LocalConfig      `yaml:"local"`
	S3         S3Config         `yaml:"s3"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Uploadcare UploadcareConfig `yaml:"uploadcare"`
}

// LocalConfig configures the local-disk provider.
type LocalConfig struct {
	// BaseDir is the root directory for stored files. All writes are
	// confined to it.
	BaseDir string `env:"STORAGE_LOCAL_DIR" yaml:"baseDir"`

	// BaseURL is the public URL prefix files are served under.
	BaseURL string `env:"STORAGE_LOCAL_BASE_URL" yaml:"baseURL"`
}

// S3Config configures the S3 provider for AWS and S3-compatible services.
type S3Config struct {
	Bucket      string `env:"STORAGE_S3_BUCKET" yaml:"bucket"`
	Region      string `env:"STORAGE_S3_REGION" yaml:"region"`
	AccessKeyID string `env:"STORAGE_S3_ACCESS_KEY_ID" yaml:"accessKeyId"`
	SecretKey   string `env:"STORAGE_S3_SECRET_KEY" yaml:"secretKey"`

	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string `env:"STORAGE_S3_ENDPOINT" yaml:"endpoint"`

	// BaseURL is the public URL base for serving files; derived from the
	// bucket and region when empty.
	BaseURL string `env:"STORAGE_S3_BASE_URL" yaml:"baseURL"`

	// ForcePathStyle switches to path-style addressing, required by
	// services like MinIO.
	ForcePathStyle bool `env:"STORAGE_S3_FORCE_PATH_STYLE" yaml:"forcePathStyle"`
}

// CloudinaryConfig configures the Cloudinary provider.
type CloudinaryConfig struct {
	CloudName string `env:"STORAGE_CLOUDINARY_CLOUD_NAME" yaml:"cloudName"`
	APIKey    string `env:"STORAGE_CLOUDINARY_API_KEY" yaml:"apiKey"`
	APISecret string `env:"STORAGE_CLOUDINARY_API_SECRET" yaml:"apiSecret"`
}

// UploadcareConfig configures the Uploadcare provider.
type UploadcareConfig struct {
	PublicKey string `env:"STORAGE_UPLOADCARE_PUBLIC_KEY" yaml:"publicKey"`
	SecretKey string `env:"STORAGE_UPLOADCARE_SECRET_KEY" yaml:"secretKey"`
}

// DefaultConfig returns the hard-coded fallback configuration: local
// storage under ./uploads with moderate limits.
func DefaultConfig() Config {
	return Config{
		Provider:      ProviderLocal,
		MaxFileSize:   "10MB",
		MaxFiles:      10,
		DefaultFolder: "uploads",
		Local: LocalConfig{
			BaseDir: "uploads",
			BaseURL: "/uploads",
		},
	}
}
