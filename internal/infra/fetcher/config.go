package fetcher

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the configuration for page fetching operations.
// The same limits apply to the metadata resolver, the header prober and the
// cross-origin relay, so every outbound request is bounded the same way.
//
// Security settings:
//   - DenyPrivateIPs: Prevents SSRF attacks by blocking private IP addresses
//   - MaxBodySize: Prevents memory exhaustion from oversized responses
//   - MaxRedirects: Prevents infinite redirect loops
//   - Timeout: Prevents resource starvation from slow servers
type Config struct {
	// Timeout is the maximum duration for a single HTTP request.
	// Callers may impose a shorter deadline through the context.
	// Default: 10s
	Timeout time.Duration `env:"TIMEOUT"`

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// This is enforced during response reading, not based on Content-Length header.
	// Default: 5242880 (5MB)
	MaxBodySize int64 `env:"MAX_BODY_SIZE"`

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Each redirect target is validated for security (SSRF check).
	// Default: 5
	MaxRedirects int `env:"MAX_REDIRECTS"`

	// DenyPrivateIPs controls whether to block access to private IP addresses.
	// Should always be true in production.
	// Default: true
	DenyPrivateIPs bool `env:"DENY_PRIVATE_IPS"`

	// UserAgent identifies the fetcher to remote sites.
	// Default: ChatWidgetPreview/1.0
	UserAgent string `env:"USER_AGENT"`

	// PageCacheTTL is how long a fetched page is reused, so the header probe
	// and the metadata card share one download. Zero disables the cache.
	// Default: 30s
	PageCacheTTL time.Duration `env:"PAGE_CACHE_TTL"`

	// PageCacheSize is the number of pages kept. Default: 64
	PageCacheSize int `env:"PAGE_CACHE_SIZE"`
}

// DefaultConfig returns the default configuration for page fetching.
//
// Example:
//
//	config := DefaultConfig()
//	config.Timeout = 5 * time.Second
//	f := New(config)
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxBodySize:    5 * 1024 * 1024, // 5MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "ChatWidgetPreview/1.0",
		PageCacheTTL:   30 * time.Second,
		PageCacheSize:  64,
	}
}

// Validate checks if the configuration values are valid and safe.
//
// Validation rules:
//   - Timeout: > 0 (must have timeout)
//   - MaxBodySize: 1KB-100MB (prevent memory issues)
//   - MaxRedirects: 0-10 (reasonable redirect limit)
//   - UserAgent: non-empty
//   - PageCacheTTL, PageCacheSize: >= 0
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent must not be empty")
	}

	if c.PageCacheTTL < 0 || c.PageCacheSize < 0 {
		return fmt.Errorf("page cache ttl and size must not be negative, got %v and %d", c.PageCacheTTL, c.PageCacheSize)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from FETCH_* environment variables.
// Unset variables keep their default value. After loading, the configuration
// is validated.
//
// Environment variables:
//   - FETCH_TIMEOUT: duration string, e.g., "10s" (default: 10s)
//   - FETCH_MAX_BODY_SIZE: integer in bytes (default: 5242880)
//   - FETCH_MAX_REDIRECTS: integer (default: 5)
//   - FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: true)
//   - FETCH_USER_AGENT: string (default: ChatWidgetPreview/1.0)
//   - FETCH_PAGE_CACHE_TTL: duration string, "0s" disables (default: 30s)
//   - FETCH_PAGE_CACHE_SIZE: integer (default: 64)
//
// Example:
//
//	// Set environment: FETCH_MAX_REDIRECTS=3
//	config, err := LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal("Invalid configuration: %v", err)
//	}
//	// config.MaxRedirects == 3
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "FETCH_"}); err != nil {
		return cfg, fmt.Errorf("invalid fetch configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
