package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Registry RegistryConfig `json:"registry"`
	Batch    BatchConfig    `json:"batch"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// RegistryConfig holds the company registry API configuration
type RegistryConfig struct {
	BaseURL       string        `json:"base_url"`
	Timeout       time.Duration `json:"timeout"`
	MaxRetries    int           `json:"max_retries"`
	RetryDelay    time.Duration `json:"retry_delay"`
	MaxRetryDelay time.Duration `json:"max_retry_delay"`
	UserAgent     string        `json:"user_agent"`
	CacheTTL      time.Duration `json:"cache_ttl"`
}

// BatchConfig holds batch lookup configuration
type BatchConfig struct {
	MaxKeys           int           `json:"max_keys"`
	RateLimitInterval time.Duration `json:"rate_limit_interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			ReadTimeout: getEnvAsInt("READ_TIMEOUT", 30),
			// A full batch of 400 keys paced at 4s takes close to 27 minutes
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 1800),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
		},
		Registry: RegistryConfig{
			BaseURL:       getEnv("REGISTRY_BASE_URL", "https://open.cnpja.com/office"),
			Timeout:       getEnvAsDuration("REGISTRY_TIMEOUT", 15*time.Second),
			MaxRetries:    getEnvAsInt("REGISTRY_MAX_RETRIES", 5),
			RetryDelay:    getEnvAsDuration("REGISTRY_RETRY_DELAY", 5*time.Second),
			MaxRetryDelay: getEnvAsDuration("REGISTRY_MAX_RETRY_DELAY", 60*time.Second),
			UserAgent:     getEnv("REGISTRY_USER_AGENT", "nfe-regime/1.0"),
			CacheTTL:      getEnvAsDuration("REGIME_CACHE_TTL", 24*time.Hour),
		},
		Batch: BatchConfig{
			MaxKeys:           getEnvAsInt("BATCH_MAX_KEYS", 400),
			RateLimitInterval: getEnvAsDuration("BATCH_RATE_LIMIT_INTERVAL", 4*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would break the lookup pipeline
func (c *Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return fmt.Errorf("REGISTRY_BASE_URL is required")
	}
	if c.Registry.Timeout <= 0 {
		return fmt.Errorf("REGISTRY_TIMEOUT must be positive")
	}
	if c.Registry.MaxRetries < 0 {
		return fmt.Errorf("REGISTRY_MAX_RETRIES must not be negative")
	}
	if c.Batch.MaxKeys <= 0 {
		return fmt.Errorf("BATCH_MAX_KEYS must be positive")
	}
	if c.Batch.RateLimitInterval < 0 {
		return fmt.Errorf("BATCH_RATE_LIMIT_INTERVAL must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("4s", "1m") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
