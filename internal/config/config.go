// Package config centralizes how gstctl reads environment variables and
// exposes them as strongly typed values.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration for the client.
type Config struct {
	// APIURL is the base URL of the GST Automation Tool server.
	APIURL string
	// MaxFileSize is the client-side upload ceiling in bytes. The server
	// enforces its own limit; this one just fails fast.
	MaxFileSize int64
	// AllowedExtensions is the single source of truth for the file-type
	// allow-list used by every validation path.
	AllowedExtensions []string
	// PollInterval is the fixed delay between status polls.
	PollInterval time.Duration
	// TokenPath is where the bearer token is persisted between runs.
	TokenPath string
	// HTTPTimeout bounds each individual request.
	HTTPTimeout time.Duration
}

const (
	defaultAPIURL       = "http://localhost:8000"
	defaultMaxFileSize  = 50 << 20 // 50 MiB, matches the server ceiling
	defaultExtensions   = "xlsx,xls,xlsb,csv"
	defaultPollInterval = 2 * time.Second
	defaultHTTPTimeout  = 30 * time.Second
)

// Load reads configuration from environment variables falling back to
// defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:            strings.TrimRight(readEnv("GSTCTL_API_URL", defaultAPIURL), "/"),
		MaxFileSize:       parseInt64("GSTCTL_MAX_FILE_BYTES", defaultMaxFileSize),
		AllowedExtensions: parseList("GSTCTL_ALLOWED_EXTENSIONS", defaultExtensions),
		PollInterval:      parseDuration("GSTCTL_POLL_INTERVAL", defaultPollInterval),
		TokenPath:         readEnv("GSTCTL_TOKEN_PATH", defaultTokenPath()),
		HTTPTimeout:       parseDuration("GSTCTL_HTTP_TIMEOUT", defaultHTTPTimeout),
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	return cfg, nil
}

// AllowedExtension reports whether ext (with or without the leading dot) is
// on the allow-list. Matching is case-insensitive.
func (c *Config) AllowedExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gstctl", "token")
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseList(key, def string) []string {
	val := readEnv(key, def)
	out := strings.Split(val, ",")
	for i := range out {
		out[i] = strings.ToLower(strings.TrimSpace(out[i]))
	}
	return out
}

func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
