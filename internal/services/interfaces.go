package services

import (
	"context"

	"github.com/nexconsult/nfe-regime/internal/lookup"
	"github.com/nexconsult/nfe-regime/internal/models"
)

// RegimeServiceInterface defines the interface for single CNPJ regime lookups
type RegimeServiceInterface interface {
	// Lookup resolves the regime of a CNPJ with timing metadata
	Lookup(ctx context.Context, cnpj string) (*models.RegimeResponse, error)

	// Resolve classifies the regime of a CNPJ
	Resolve(ctx context.Context, cnpj string) models.Regime

	// Health returns service health status
	Health() map[string]interface{}
}

// BatchServiceInterface defines the interface for paced batch lookups
type BatchServiceInterface interface {
	// Run resolves every key in input order
	Run(ctx context.Context, keys []string, progress lookup.ProgressFunc) (*models.BatchResult, error)

	// MaxKeys returns the batch size limit
	MaxKeys() int
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}

var (
	_ CacheServiceInterface  = (*CacheService)(nil)
	_ RegimeServiceInterface = (*RegimeService)(nil)
	_ BatchServiceInterface  = (*lookup.BatchResolver)(nil)
)
