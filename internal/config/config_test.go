package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "https://open.cnpja.com/office", cfg.Registry.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.Registry.Timeout)
		assert.Equal(t, 5*time.Second, cfg.Registry.RetryDelay)
		assert.Equal(t, 400, cfg.Batch.MaxKeys)
		assert.Equal(t, 4*time.Second, cfg.Batch.RateLimitInterval)
	})

	t.Run("should read overrides from the environment", func(t *testing.T) {
		t.Setenv("BATCH_MAX_KEYS", "10")
		t.Setenv("BATCH_RATE_LIMIT_INTERVAL", "250ms")
		t.Setenv("REGISTRY_TIMEOUT", "3")
		t.Setenv("REDIS_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 10, cfg.Batch.MaxKeys)
		assert.Equal(t, 250*time.Millisecond, cfg.Batch.RateLimitInterval)
		assert.Equal(t, 3*time.Second, cfg.Registry.Timeout)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("should ignore malformed values", func(t *testing.T) {
		t.Setenv("PORT", "http")
		t.Setenv("REGISTRY_RETRY_DELAY", "soon")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 5*time.Second, cfg.Registry.RetryDelay)
	})

	t.Run("should reject a non-positive batch size", func(t *testing.T) {
		t.Setenv("BATCH_MAX_KEYS", "0")

		_, err := Load()
		assert.Error(t, err)
	})
}
