// Package config loads the storefront server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the storefront server configuration.
type Config struct {
	Store StoreConfig

	// Optional slug index; empty Addr disables it.
	Redis struct {
		Addr     string
		Password string
		DB       int `validate:"gte=0"`
	}

	// Optional remote slug authority; empty URL answers from the store.
	SlugAuthority struct {
		URL     string        `validate:"omitempty,url"`
		Timeout time.Duration `validate:"gt=0"`
		Retries int           `validate:"gte=0,lte=10"`
	}

	CatalogFile       string
	SeedDir           string
	ReconcileSchedule string

	Log struct {
		Level  string `validate:"oneof=debug info warn error"`
		Format string `validate:"oneof=json console"`
	}
}

// StoreConfig selects the site store backend.
type StoreConfig struct {
	Driver   string `validate:"oneof=sqlite postgres mysql mongo"`
	DataDir  string `validate:"required"`
	Host     string
	Port     int `validate:"gte=0,lte=65535"`
	User     string
	Password string
	Database string
	SSLMode  string
	MongoURI string `validate:"required_if=Driver mongo"`
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Store.Driver = getEnv("STOREFRONT_STORE_DRIVER", "sqlite")
	cfg.Store.DataDir = getEnv("STOREFRONT_DATA_DIR", defaultDataDir())
	cfg.Store.Host = getEnv("STOREFRONT_DB_HOST", "localhost")
	cfg.Store.Port = parseInt(getEnv("STOREFRONT_DB_PORT", ""), defaultPort(cfg.Store.Driver))
	cfg.Store.User = getEnv("STOREFRONT_DB_USER", "")
	cfg.Store.Password = getEnv("STOREFRONT_DB_PASSWORD", "")
	cfg.Store.Database = getEnv("STOREFRONT_DB_NAME", "storefront")
	cfg.Store.SSLMode = getEnv("STOREFRONT_DB_SSLMODE", "disable")
	cfg.Store.MongoURI = getEnv("STOREFRONT_MONGO_URI", "")

	cfg.Redis.Addr = getEnv("STOREFRONT_REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("STOREFRONT_REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("STOREFRONT_REDIS_DB", ""), 0)

	cfg.SlugAuthority.URL = getEnv("STOREFRONT_SLUG_AUTHORITY_URL", "")
	cfg.SlugAuthority.Timeout = parseDuration(getEnv("STOREFRONT_SLUG_AUTHORITY_TIMEOUT", ""), 5*time.Second)
	cfg.SlugAuthority.Retries = parseInt(getEnv("STOREFRONT_SLUG_AUTHORITY_RETRIES", ""), 2)

	cfg.CatalogFile = getEnv("STOREFRONT_CATALOG_FILE", "")
	cfg.SeedDir = getEnv("STOREFRONT_SEED_DIR", "")
	cfg.ReconcileSchedule = getEnv("STOREFRONT_RECONCILE_SCHEDULE", "@every 15m")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(s); err == nil && v > 0 {
		return v
	}
	return def
}

func defaultPort(driver string) int {
	switch driver {
	case "postgres":
		return 5432
	case "mysql":
		return 3306
	}
	return 0
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".storefront")
	}
	return ".storefront"
}
