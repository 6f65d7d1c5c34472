package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formbuilder.yaml")
	body := "server:\n  port: 9090\nstore:\n  driver: bolt\n  path: /tmp/fb.db\nlive:\n  idle_timeout: 5m\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("FORMBUILDER_LOGGING_LEVEL", "debug")
	t.Setenv("FORMBUILDER_STORE_CACHE_SIZE", "16")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "bolt", cfg.Store.Driver)
	assert.Equal(t, "/tmp/fb.db", cfg.Store.Path)
	assert.Equal(t, 16, cfg.Store.CacheSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Live.IdleTimeout)
	assert.Equal(t, 8*time.Hour, cfg.Live.MaxAge)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("FORMBUILDER_STORE_DRIVER", "redis")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown store driver")
}
