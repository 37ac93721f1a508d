package services

import (
	"testing"
	"time"

	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_WithoutRedis(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: false},
		Registry: config.RegistryConfig{
			BaseURL:       "http://registry.test",
			Timeout:       time.Second,
			MaxRetries:    1,
			RetryDelay:    time.Second,
			MaxRetryDelay: time.Second,
			CacheTTL:      time.Hour,
		},
		Batch: config.BatchConfig{MaxKeys: 400, RateLimitInterval: 4 * time.Second},
	}

	container, err := NewContainer(cfg, testLogger())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.GetRedisClient())
	assert.Equal(t, 400, container.BatchService.MaxKeys())

	health := container.Health()
	assert.Equal(t, "disabled", health["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "healthy", health["memory"].(map[string]interface{})["status"])

	registryHealth := health["registry"].(map[string]interface{})
	assert.Equal(t, true, registryHealth["cache_enabled"])
}
