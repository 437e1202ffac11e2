package main

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultProfile = "default"

// configFile is ~/.wifimap/config.yaml. The flat url/api_key pair predates
// profiles and is still read; it loses to the selected profile.
type configFile struct {
	URL           string                   `yaml:"url,omitempty"`
	APIKey        string                   `yaml:"api_key,omitempty"`
	Profiles      map[string]profileConfig `yaml:"profiles,omitempty"`
	ActiveProfile string                   `yaml:"active_profile,omitempty"`
}

// profileConfig holds connection settings for a single profile.
type profileConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key,omitempty"`
}

// settings are the effective connection settings after precedence is applied.
type settings struct {
	URL     string
	APIKey  string
	Profile string
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".wifimap", "config.yaml"), nil
}

// loadConfigFile reads the config file. A missing file yields a nil config
// and a nil error.
func loadConfigFile() (string, *configFile, error) {
	path, err := configPath()
	if err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return path, nil, nil
	}

	if err != nil {
		return path, nil, err
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return path, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return path, &cfg, nil
}

// settle picks the effective settings: explicit flags first, then the
// WIFIMAP_* environment, then the config file profile.
func settle(cfg *configFile, url, apiKey, profile string) settings {
	s := settings{URL: url, APIKey: apiKey}

	if s.URL == defaultURL {
		if v := os.Getenv("WIFIMAP_URL"); v != "" {
			s.URL = v
		}
	}

	s.APIKey = cmp.Or(s.APIKey, os.Getenv("WIFIMAP_API_KEY"))
	s.Profile = cmp.Or(profile, os.Getenv("WIFIMAP_PROFILE"))

	if cfg == nil {
		s.Profile = cmp.Or(s.Profile, defaultProfile)

		return s
	}

	s.Profile = cmp.Or(s.Profile, cfg.ActiveProfile, defaultProfile)

	fileURL, fileKey := cfg.URL, cfg.APIKey
	if p, ok := cfg.Profiles[s.Profile]; ok {
		fileURL = cmp.Or(p.URL, fileURL)
		fileKey = cmp.Or(p.APIKey, fileKey)
	}

	if s.URL == defaultURL && fileURL != "" {
		s.URL = fileURL
	}

	s.APIKey = cmp.Or(s.APIKey, fileKey)

	return s
}

// resolveConfig folds the environment and config file into the global flags.
// An unreadable config file is ignored.
func resolveConfig() {
	_, cfg, _ := loadConfigFile() //nolint:errcheck // flags and env still apply

	s := settle(cfg, flagURL, flagKey, flagProfile)
	flagURL, flagKey = s.URL, s.APIKey
}

// saveProfile stores url and apiKey under name and makes it the active
// profile. Other profiles already in the file are kept.
func saveProfile(name, url, apiKey string) (string, error) {
	path, cfg, err := loadConfigFile()
	if err != nil {
		return "", err
	}

	if cfg == nil {
		cfg = &configFile{}
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]profileConfig)
	}

	name = cmp.Or(name, defaultProfile)
	cfg.Profiles[name] = profileConfig{URL: url, APIKey: apiKey}
	cfg.ActiveProfile = name

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup

		return "", err
	}

	return path, nil
}
