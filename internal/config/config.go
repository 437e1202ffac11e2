// Package config provides environment-driven configuration for the wifimap server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DBPath         string
	Port           string
	ListenHost     string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
	APIKey         Secret
	MaxImportMB    int
	ImportWatchDir string
	ImportTimeout  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:         envOrDefault("DB_PATH", "wifimap.db"),
		Port:           envOrDefault("PORT", "3031"),
		ListenHost:     envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "text"),
		APIKey:         Secret(envOrDefault("API_KEY", "")),
		ImportWatchDir: envOrDefault("IMPORT_WATCH_DIR", ""),
	}

	maxMB, err := strconv.Atoi(envOrDefault("MAX_IMPORT_MB", "64"))
	if err != nil || maxMB < 1 || maxMB > 1024 {
		return nil, fmt.Errorf("MAX_IMPORT_MB must be an integer between 1 and 1024")
	}
	cfg.MaxImportMB = maxMB

	timeout, err := time.ParseDuration(envOrDefault("IMPORT_TIMEOUT", "0s"))
	if err != nil || timeout < 0 {
		return nil, fmt.Errorf("IMPORT_TIMEOUT must be a non-negative duration such as 30s")
	}
	cfg.ImportTimeout = timeout

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MaxImportBytes returns the import size limit in bytes.
func (c *Config) MaxImportBytes() int64 {
	return int64(c.MaxImportMB) << 20
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
