package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Buildin serves its share pages to real browsers; a bot-looking User-Agent
// gets an empty shell page, so the fetcher identifies as one.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetchConfig holds the configuration for HTML page fetching.
//
// Security settings:
//   - DenyPrivateIPs: Prevents SSRF attacks by blocking private IP addresses
//   - MaxBodySize: Prevents memory exhaustion from oversized responses
//   - MaxRedirects: Prevents infinite redirect loops
type PageFetchConfig struct {
	// GalleryTimeout is the request timeout for gallery page fetches.
	// Gallery pages are heavy (full share page render) and get more room
	// than single-post metadata fetches.
	// Default: 15s
	GalleryTimeout time.Duration

	// MetadataTimeout is the request timeout for single post page fetches
	// during metadata enrichment.
	// Default: 10s
	MetadataTimeout time.Duration

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// Responses exceeding this limit are rejected to prevent memory exhaustion.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Each redirect target is re-validated for SSRF.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs controls whether to block access to private IP addresses.
	// Should always be true in production.
	// Default: true
	DenyPrivateIPs bool

	// UserAgent is sent on every request.
	UserAgent string
}

// DefaultConfig returns the default configuration for page fetching.
func DefaultConfig() PageFetchConfig {
	return PageFetchConfig{
		GalleryTimeout:  15 * time.Second,
		MetadataTimeout: 10 * time.Second,
		MaxBodySize:     10 * 1024 * 1024, // 10MB
		MaxRedirects:    5,
		DenyPrivateIPs:  true,
		UserAgent:       defaultUserAgent,
	}
}

// Validate checks if the configuration values are valid and safe.
func (c *PageFetchConfig) Validate() error {
	if c.GalleryTimeout <= 0 {
		return fmt.Errorf("gallery timeout must be positive, got %v", c.GalleryTimeout)
	}
	if c.MetadataTimeout <= 0 {
		return fmt.Errorf("metadata timeout must be positive, got %v", c.MetadataTimeout)
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

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// If a variable is not set, the default value is used; a set-but-invalid
// value is an error. After loading, the configuration is validated.
//
// Environment variables:
//   - PAGE_FETCH_GALLERY_TIMEOUT: duration string, e.g., "15s" (default: 15s)
//   - PAGE_FETCH_METADATA_TIMEOUT: duration string, e.g., "10s" (default: 10s)
//   - PAGE_FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - PAGE_FETCH_MAX_REDIRECTS: integer (default: 5)
//   - PAGE_FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: true)
//   - PAGE_FETCH_USER_AGENT: string (default: browser User-Agent)
func LoadConfigFromEnv() (PageFetchConfig, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("PAGE_FETCH_GALLERY_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid PAGE_FETCH_GALLERY_TIMEOUT: %v (expected format: '15s', '1m')", err)
		}
		cfg.GalleryTimeout = parsed
	}

	if val := os.Getenv("PAGE_FETCH_METADATA_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid PAGE_FETCH_METADATA_TIMEOUT: %v (expected format: '10s', '1m')", err)
		}
		cfg.MetadataTimeout = parsed
	}

	if val := os.Getenv("PAGE_FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid PAGE_FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("PAGE_FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid PAGE_FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("PAGE_FETCH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}

	if val := os.Getenv("PAGE_FETCH_USER_AGENT"); val != "" {
		cfg.UserAgent = val
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
