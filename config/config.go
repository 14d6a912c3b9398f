// Package config provides client configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	// BaseURL is the path prefix under which transport implementations compose
	// endpoints (see storage.EndpointRoot).
	BaseURL string

	// KeyCacheTimeout is the sliding lifetime of an unlocked master key in the
	// in-memory cache.
	KeyCacheTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RetryEnabled indicates whether transient transport failures are retried.
	RetryEnabled bool
	// RetryMaxElapsedTime bounds the total time spent retrying one call.
	RetryMaxElapsedTime time.Duration
	// RetryInitialInterval is the first backoff interval between retries.
	RetryInitialInterval time.Duration

	// RateLimitEnabled indicates whether client-side transport rate limiting is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of transport calls allowed per second.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for transport rate limiting.
	RateLimitBurst int

	// MetricsEnabled indicates whether operation metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the client metrics.
	MetricsNamespace string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Transport endpoint root
		BaseURL: env.GetString("PRIVSTORE_BASE_URL", "/private-storage"),

		// Key cache
		KeyCacheTimeout: env.GetDuration("PRIVSTORE_KEY_CACHE_TIMEOUT_MS", 60000, time.Millisecond),

		// Logging
		LogLevel: env.GetString("PRIVSTORE_LOG_LEVEL", "info"),

		// Transport retry
		RetryEnabled:         env.GetBool("PRIVSTORE_RETRY_ENABLED", true),
		RetryMaxElapsedTime:  env.GetDuration("PRIVSTORE_RETRY_MAX_ELAPSED_MS", 15000, time.Millisecond),
		RetryInitialInterval: env.GetDuration("PRIVSTORE_RETRY_INITIAL_INTERVAL_MS", 100, time.Millisecond),

		// Transport rate limiting
		RateLimitEnabled:        env.GetBool("PRIVSTORE_RATE_LIMIT_ENABLED", false),
		RateLimitRequestsPerSec: env.GetFloat64("PRIVSTORE_RATE_LIMIT_REQUESTS_PER_SEC", 50.0),
		RateLimitBurst:          env.GetInt("PRIVSTORE_RATE_LIMIT_BURST", 100),

		// Metrics
		MetricsEnabled:   env.GetBool("PRIVSTORE_METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("PRIVSTORE_METRICS_NAMESPACE", "privstore"),
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
