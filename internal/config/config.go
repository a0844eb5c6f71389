// Package config loads CLI configuration from a YAML file, a .env file and
// ANOTES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. ANOTES_DATA_PATH -> data.path.
const EnvPrefix = "ANOTES_"

// Config is the full CLI configuration.
type Config struct {
	Data  DataConfig  `koanf:"data"`
	Blobs BlobsConfig `koanf:"blobs"`
	Trash TrashConfig `koanf:"trash"`
	Quota QuotaConfig `koanf:"quota"`
	Log   LogConfig   `koanf:"log"`
}

// DataConfig selects the flat store holding notes and document metadata.
type DataConfig struct {
	Path         string `koanf:"path"`
	Adapter      string `koanf:"adapter" validate:"oneof=fs memory"`
	FlatCapacity int64  `koanf:"flat_capacity" validate:"gte=0"` // bytes, 0 = unbounded
}

// BlobsConfig selects the store holding document payloads.
type BlobsConfig struct {
	Adapter  string `koanf:"adapter" validate:"oneof=fs memory couch"`
	CouchURL string `koanf:"couch_url" validate:"required_if=Adapter couch"`
	CouchDB  string `koanf:"couch_db"`
}

type TrashConfig struct {
	RetentionDays int           `koanf:"retention_days" validate:"gte=0"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`
}

type QuotaConfig struct {
	MaxFileSize  int64 `koanf:"max_file_size" validate:"gte=0"`
	MaxTotalSize int64 `koanf:"max_total_size" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Load reads configPath (if it exists), then .env, then the environment.
// Later sources win. An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps ANOTES_TRASH_RETENTION_DAYS to trash.retention_days: the first
// segment is the section, the rest is the field name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func applyDefaults(cfg *Config) error {
	if cfg.Data.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.Data.Path = filepath.Join(home, ".anotes")
	}
	if cfg.Data.Adapter == "" {
		cfg.Data.Adapter = "fs"
	}
	if cfg.Blobs.Adapter == "" {
		cfg.Blobs.Adapter = cfg.Data.Adapter
	}
	if cfg.Blobs.CouchDB == "" {
		cfg.Blobs.CouchDB = "anotes-blobs"
	}
	if cfg.Trash.RetentionDays == 0 {
		cfg.Trash.RetentionDays = 30
	}
	if cfg.Trash.SweepInterval == 0 {
		cfg.Trash.SweepInterval = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and adapter names.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// SlogLevel converts Log.Level.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
