package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 60, cfg.Gateway.RatePerMinute)
	assert.Equal(t, 1000, cfg.Gateway.RatePerHour)
	assert.Equal(t, 10000, cfg.Gateway.RatePerDay)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_TYPE", "postgresql")
	t.Setenv("POSTGRES_URL", "postgres://localhost/sitemind")
	t.Setenv("MASTER_KEY", "shh")
	t.Setenv("AI_TIMEOUT_SECONDS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgresql", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/sitemind", cfg.Storage.PostgresURL)
	assert.Equal(t, "shh", cfg.Server.MasterKey)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		o, err := LoadOverrides("")
		require.NoError(t, err)
		assert.Empty(t, o.BaseURLs)

		o, err = LoadOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, o.BaseURLs)
	})

	t.Run("ParsesBaseURLs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overrides.yaml")
		content := "base_urls:\n  ollama: http://gpu-box:11434\n  openai: https://proxy.internal/v1\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		o, err := LoadOverrides(path)
		require.NoError(t, err)
		assert.Equal(t, "http://gpu-box:11434", o.BaseURLs["ollama"])
		assert.Equal(t, "https://proxy.internal/v1", o.BaseURLs["openai"])
	})

	t.Run("RejectsInvalidYAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overrides.yaml")
		require.NoError(t, os.WriteFile(path, []byte("base_urls: [unclosed"), 0o644))

		_, err := LoadOverrides(path)
		assert.Error(t, err)
	})
}
