package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ufsoft/screener/internal/pkg/env"
)

const (
	DefaultMaxUploadSize   int64 = 10 * 1024 * 1024
	DefaultCapabilityLimit       = 64
	DefaultWatermarkText         = "Screener"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type App struct {
	Host    string
	Port    string
	Env     string
	Secret  string
	Country string
	// BaseURL is the externally reachable URL used in mailed links.
	BaseURL string
}

type Upload struct {
	Path    string
	MaxSize int64
}

type Watermark struct {
	Font     string
	Text     string
	Optional bool
}

// Enabled reports whether a watermark can be rendered at all.
func (w Watermark) Enabled() bool {
	return w.Font != "" && w.Text != ""
}

type S3 struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string
	Prefix          string
}

type Storage struct {
	Backend string
	S3      S3
}

type Database struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string
}

type Cache struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a redis compatible cache is configured.
func (c Cache) Enabled() bool {
	return c.Host != ""
}

type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

type HCaptcha struct {
	SiteKey string
	Secret  string
}

// Enabled reports whether both keys are present.
func (h HCaptcha) Enabled() bool {
	return h.SiteKey != "" && h.Secret != ""
}

type Visibility struct {
	AdminSeesPrivate bool
	CapabilityLimit  int
}

// Config is the materialised application configuration.
type Config struct {
	App        App
	Upload     Upload
	Watermark  Watermark
	Storage    Storage
	Database   Database
	Cache      Cache
	SMTP       SMTP
	HCaptcha   HCaptcha
	Visibility Visibility
}

// Load reads the configuration from the environment (see env.SetupEnvFile).
func Load() (*Config, error) {
	cfg := &Config{
		App: App{
			Host:    env.GetEnv("APP_HOST", "localhost"),
			Port:    env.GetEnv("APP_PORT", "4000"),
			Env:     env.GetEnv("APP_ENV", "prod"),
			Secret:  env.GetEnv("APP_SECRET", ""),
			Country: env.GetEnv("HOST_COUNTRY", ""),
			BaseURL: env.GetEnv("APP_BASE_URL", ""),
		},
		Upload: Upload{
			Path:    env.GetEnv("UPLOADS_PATH", "uploads"),
			MaxSize: env.GetEnvInt64("UPLOAD_MAX_SIZE", DefaultMaxUploadSize),
		},
		Watermark: Watermark{
			Font:     env.GetEnv("WATERMARK_FONT", ""),
			Text:     env.GetEnv("WATERMARK_TEXT", DefaultWatermarkText),
			Optional: env.GetEnvBool("WATERMARK_OPTIONAL", true),
		},
		Storage: Storage{
			Backend: env.GetEnv("STORAGE_BACKEND", StorageLocal),
			S3: S3{
				AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
				Region:          env.GetEnv("S3_REGION", "us-east-1"),
				BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
				EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
				Prefix:          env.GetEnv("S3_PREFIX", ""),
			},
		},
		Database: Database{
			Driver:   env.GetEnv("DB_DRIVER", DriverMySQL),
			Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:     env.GetEnv("DB_PORT", "3306"),
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Name:     env.GetEnv("DB_NAME", "screener"),
			Path:     env.GetEnv("DB_PATH", "screener.db"),
		},
		Cache: Cache{
			Host:     env.GetEnv("CACHE_HOST", ""),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		SMTP: SMTP{
			Host:     env.GetEnv("SMTP_HOST", ""),
			Port:     env.GetEnv("SMTP_PORT", "25"),
			Username: env.GetEnv("SMTP_USERNAME", ""),
			Password: env.GetEnv("SMTP_PASSWORD", ""),
			Sender:   env.GetEnv("SMTP_SENDER", ""),
		},
		HCaptcha: HCaptcha{
			SiteKey: env.GetEnv("HCAPTCHA_SITEKEY", ""),
			Secret:  env.GetEnv("HCAPTCHA_SECRET", ""),
		},
		Visibility: Visibility{
			AdminSeesPrivate: env.GetEnvBool("VISIBILITY_ADMIN_SEES_PRIVATE", false),
			CapabilityLimit:  env.GetEnvInt("CAPABILITY_LIMIT", DefaultCapabilityLimit),
		},
	}

	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://" + cfg.ListenAddr()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Secret == "" {
		errs = append(errs, errors.New("APP_SECRET is required"))
	}
	if c.App.Country == "" {
		errs = append(errs, errors.New("HOST_COUNTRY is required"))
	}
	if c.Upload.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_SIZE must be positive, got %d", c.Upload.MaxSize))
	}
	if c.Visibility.CapabilityLimit <= 0 {
		errs = append(errs, fmt.Errorf("CAPABILITY_LIMIT must be positive, got %d", c.Visibility.CapabilityLimit))
	}
	if !c.Watermark.Optional && c.Watermark.Font == "" {
		errs = append(errs, errors.New("WATERMARK_FONT is required when WATERMARK_OPTIONAL is false"))
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Upload.Path == "" {
			errs = append(errs, errors.New("UPLOADS_PATH is required for local storage"))
		}
	case StorageS3:
		if c.Storage.S3.AccessKeyID == "" || c.Storage.S3.SecretAccessKey == "" {
			errs = append(errs, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for s3 storage"))
		}
		if c.Storage.S3.BucketName == "" {
			errs = append(errs, errors.New("S3_BUCKET_NAME is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	return c.App.Env == "dev"
}

// UploadsRoot returns the absolute uploads directory.
func (c *Config) UploadsRoot() (string, error) {
	return filepath.Abs(c.Upload.Path)
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.App.Host, c.App.Port)
}
