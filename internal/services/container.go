package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/nexconsult/nfe-regime/internal/lookup"
	"github.com/nexconsult/nfe-regime/internal/registry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheCleanupInterval = 5 * time.Minute

// Container holds all service dependencies
type Container struct {
	config        *config.Config
	logger        *logrus.Logger
	redisClient   *redis.Client
	stopCleanup   context.CancelFunc
	RegimeService RegimeServiceInterface
	BatchService  BatchServiceInterface
	CacheService  CacheServiceInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	if err := container.initRedis(); err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	container.initServices()

	return container, nil
}

// initRedis connects to Redis when enabled. A failed ping leaves the cache in memory.
func (c *Container) initRedis() error {
	if !c.config.Redis.Enabled {
		c.logger.Info("Redis disabled, using in-memory cache")
		return nil
	}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout+time.Second)
	defer cancel()

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running with in-memory cache")
		if closeErr := c.redisClient.Close(); closeErr != nil {
			return closeErr
		}
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}

	return nil
}

// initServices wires cache, registry client and batch resolver
func (c *Container) initServices() {
	cache := NewCacheService(c.redisClient, c.config.Registry.CacheTTL, registry.CacheKeyPrefix, c.logger)

	ctx, cancel := context.WithCancel(context.Background())
	cache.StartCleanupRoutine(ctx, cacheCleanupInterval)
	c.stopCleanup = cancel
	c.CacheService = cache

	client := registry.NewClient(c.config.Registry, c.logger,
		registry.WithCache(cache),
		registry.WithPacing(c.config.Batch.RateLimitInterval),
	)
	regimeService := NewRegimeService(client, c.logger)
	c.RegimeService = regimeService

	c.BatchService = lookup.NewBatchResolver(regimeService, c.config.Batch, c.logger)
}

// Close closes all service connections
func (c *Container) Close() error {
	if c.stopCleanup != nil {
		c.stopCleanup()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.CacheService != nil {
		for name, status := range c.CacheService.Health() {
			health[name] = status
		}
	}

	if c.RegimeService != nil {
		health["registry"] = c.RegimeService.Health()
	}

	return health
}

// GetRedisClient returns the Redis client, nil when running in memory
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}
