package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("STOREFRONT_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 0, cfg.Store.Port)
	assert.Equal(t, "storefront", cfg.Store.Database)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.SlugAuthority.URL)
	assert.Equal(t, 5*time.Second, cfg.SlugAuthority.Timeout)
	assert.Equal(t, "@every 15m", cfg.ReconcileSchedule)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("STOREFRONT_STORE_DRIVER", "postgres")
	t.Setenv("STOREFRONT_DATA_DIR", "/var/lib/storefront")
	t.Setenv("STOREFRONT_DB_HOST", "db")
	t.Setenv("STOREFRONT_DB_USER", "sf")
	t.Setenv("STOREFRONT_REDIS_ADDR", "redis:6379")
	t.Setenv("STOREFRONT_REDIS_DB", "3")
	t.Setenv("STOREFRONT_SLUG_AUTHORITY_URL", "https://api.example.com")
	t.Setenv("STOREFRONT_SLUG_AUTHORITY_TIMEOUT", "750ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 5432, cfg.Store.Port)
	assert.Equal(t, "db", cfg.Store.Host)
	assert.Equal(t, "sf", cfg.Store.User)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "https://api.example.com", cfg.SlugAuthority.URL)
	assert.Equal(t, 750*time.Millisecond, cfg.SlugAuthority.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver":    {"STOREFRONT_STORE_DRIVER": "oracle"},
		"mongo without uri": {"STOREFRONT_STORE_DRIVER": "mongo"},
		"bad log level":     {"LOG_LEVEL": "verbose"},
		"bad authority url": {"STOREFRONT_SLUG_AUTHORITY_URL": "not a url"},
		"port out of range": {"STOREFRONT_DB_PORT": "70000"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STOREFRONT_DATA_DIR", t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 7, parseInt("x", 7))
	assert.Equal(t, 12, parseInt("12", 7))
	assert.Equal(t, time.Second, parseDuration("-5s", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}
