package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// minAPIKeyLength is the shortest accepted API_KEY.
const minAPIKeyLength = 16

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return c.validateWatchDir()
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH must not be blank")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local use; 0.0.0.0/:: when a container boundary applies.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", c.LogFormat)
	}

	return nil
}

func (c *Config) validateAuth() error {
	key := c.APIKey.Value()
	if key != "" && len(key) < minAPIKeyLength {
		return fmt.Errorf("API_KEY must be at least %d characters", minAPIKeyLength)
	}

	// Without a key the API is open, so it must stay on loopback.
	if key == "" && (c.ListenHost == "0.0.0.0" || c.ListenHost == "::") {
		return fmt.Errorf("API_KEY is required when LISTEN_HOST is %q", c.ListenHost)
	}

	return nil
}

func (c *Config) validateWatchDir() error {
	if c.ImportWatchDir == "" {
		return nil
	}

	info, err := os.Stat(c.ImportWatchDir)
	if err != nil {
		return fmt.Errorf("IMPORT_WATCH_DIR: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("IMPORT_WATCH_DIR %q is not a directory", c.ImportWatchDir)
	}

	return nil
}
