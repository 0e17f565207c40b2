// Package config provides a type-safe, generic and cached way to load
// application configuration from a YAML file and environment variables.
//
// It wraps `github.com/joho/godotenv`, `gopkg.in/yaml.v3` and
// `github.com/caarlos0/env/v11` to deliver a convenient API that:
//
//   - Loads a `.env` file from the current working directory if present.
//   - Decodes the default `semantq.storage.yml` file (or an explicit
//     file via LoadFile) over the struct's initial values.
//   - Parses environment variables on top, so the environment always
//     wins over file values and defaults.
//   - Caches each successfully loaded configuration type so it is only
//     parsed once for the lifetime of the process.
//
// # Usage
//
// Create a struct describing your configuration and annotate its fields
// with `yaml` and `env` tags:
//
//	type StorageConfig struct {
//	    Provider    string `yaml:"provider" env:"STORAGE_PROVIDER"`
//	    MaxFileSize string `yaml:"max_file_size" env:"STORAGE_MAX_FILE_SIZE"`
//	}
//
// Populate it with defaults, then load:
//
//	import "github.com/Gugulethu-Nyoni/semantq-storage/config"
//
//	cfg := StorageConfig{Provider: "local", MaxFileSize: "10MB"}
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("loading config: %v", err)
//	}
//
// Subsequent calls to `config.Load` for the same type are served from
// the in-memory cache without re-parsing.
//
// # Error Handling
//
// The package defines sentinel errors that can be compared with `errors.Is`:
//
//   - `ErrParsingConfig` – failed to parse env vars into struct.
//   - `ErrInvalidConfigFile` – config file unreadable or invalid YAML.
//   - `ErrConfigNotLoaded` – requested config type has not been loaded yet.
//   - `ErrNilPointer` – nil pointer passed to `Load`/`MustLoad`.
package config
