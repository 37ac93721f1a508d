package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newMemoryCache(ttl time.Duration) (*CacheService, *time.Time) {
	now := time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)
	cache := NewCacheService(nil, ttl, "regime:", testLogger())
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestCacheService_MemoryFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("should store and return values without Redis", func(t *testing.T) {
		cache, _ := newMemoryCache(time.Hour)

		require.NoError(t, cache.Set(ctx, "regime:123", "SIMEI"))

		val, err := cache.Get(ctx, "regime:123")
		require.NoError(t, err)
		assert.Equal(t, "SIMEI", val)

		exists, err := cache.Exists(ctx, "regime:123")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("should report a miss for unknown keys", func(t *testing.T) {
		cache, _ := newMemoryCache(time.Hour)

		_, err := cache.Get(ctx, "regime:missing")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("should expire entries after the TTL", func(t *testing.T) {
		cache, now := newMemoryCache(time.Minute)
		require.NoError(t, cache.Set(ctx, "regime:123", "SIMEI"))

		*now = now.Add(2 * time.Minute)

		_, err := cache.Get(ctx, "regime:123")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("should delete a single entry", func(t *testing.T) {
		cache, _ := newMemoryCache(time.Hour)
		require.NoError(t, cache.Set(ctx, "regime:123", "SIMEI"))

		require.NoError(t, cache.Delete(ctx, "regime:123"))

		exists, _ := cache.Exists(ctx, "regime:123")
		assert.False(t, exists)
	})

	t.Run("should clear only prefixed entries", func(t *testing.T) {
		cache, _ := newMemoryCache(time.Hour)
		require.NoError(t, cache.Set(ctx, "regime:1", "SIMEI"))
		require.NoError(t, cache.Set(ctx, "regime:2", "Simples Nacional"))
		require.NoError(t, cache.Set(ctx, "other", "kept"))

		require.NoError(t, cache.Clear(ctx))

		_, err := cache.Get(ctx, "regime:1")
		assert.ErrorIs(t, err, ErrCacheMiss)
		val, err := cache.Get(ctx, "other")
		require.NoError(t, err)
		assert.Equal(t, "kept", val)
	})

	t.Run("should evict expired entries on cleanup", func(t *testing.T) {
		cache, now := newMemoryCache(time.Minute)
		require.NoError(t, cache.Set(ctx, "regime:1", "SIMEI"))
		*now = now.Add(30 * time.Second)
		require.NoError(t, cache.Set(ctx, "regime:2", "SIMEI"))
		*now = now.Add(45 * time.Second)

		assert.Equal(t, 1, cache.cleanupExpired())

		stats, err := cache.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats["memory"].(map[string]interface{})["size"])
	})
}

func TestCacheService_Health(t *testing.T) {
	cache, _ := newMemoryCache(time.Hour)

	health := cache.Health()

	assert.Equal(t, "disabled", health["redis"].(map[string]interface{})["status"])
	assert.Equal(t, "healthy", health["memory"].(map[string]interface{})["status"])
}
