package main

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, key, fmt, profile string }{flagURL, flagKey, flagFmt, flagProfile}
	t.Cleanup(func() {
		flagURL = orig.url
		flagKey = orig.key
		flagFmt = orig.fmt
		flagProfile = orig.profile
	})
}

// isolate points HOME at a temp dir and clears the wifimap env vars.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("WIFIMAP_URL", "")
	t.Setenv("WIFIMAP_API_KEY", "")
	t.Setenv("WIFIMAP_PROFILE", "")
	flagURL = defaultURL
	flagKey = ""
	flagProfile = ""
	return home
}

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".wifimap")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolveConfigEnv(t *testing.T) {
	isolate(t)
	t.Setenv("WIFIMAP_URL", "http://env-server:9090")
	t.Setenv("WIFIMAP_API_KEY", "secret-key-from-env")

	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL: got %q, want %q", flagURL, "http://env-server:9090")
	}
	if flagKey != "secret-key-from-env" {
		t.Errorf("flagKey: got %q, want %q", flagKey, "secret-key-from-env")
	}
}

func TestResolveConfigFlagTakesPrecedenceOverEnv(t *testing.T) {
	isolate(t)
	t.Setenv("WIFIMAP_URL", "http://env-server:9090")

	flagURL = "http://explicit-flag:1234"
	resolveConfig()

	if flagURL != "http://explicit-flag:1234" {
		t.Errorf("explicit flag should win; got %q", flagURL)
	}
}

func TestResolveConfigFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantURL string
		wantKey string
	}{
		{
			name:    "flat format",
			content: "url: http://from-file:8080\napi_key: file-key\n",
			wantURL: "http://from-file:8080",
			wantKey: "file-key",
		},
		{
			name: "active profile",
			content: `
active_profile: field
profiles:
  default:
    url: http://default:3031
    api_key: default-key
  field:
    url: http://laptop:4040
    api_key: field-key
`,
			wantURL: "http://laptop:4040",
			wantKey: "field-key",
		},
		{
			name: "default profile when none active",
			content: `
profiles:
  default:
    url: http://default-profile:5050
`,
			wantURL: "http://default-profile:5050",
			wantKey: "",
		},
		{
			name:    "invalid yaml is ignored",
			content: ":::not-yaml:::",
			wantURL: defaultURL,
			wantKey: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			home := isolate(t)
			writeConfigFile(t, home, tc.content)

			resolveConfig()

			if flagURL != tc.wantURL {
				t.Errorf("flagURL: got %q, want %q", flagURL, tc.wantURL)
			}
			if flagKey != tc.wantKey {
				t.Errorf("flagKey: got %q, want %q", flagKey, tc.wantKey)
			}
		})
	}
}

func TestResolveConfigMissingFile(t *testing.T) {
	isolate(t)

	resolveConfig()

	if flagURL != defaultURL {
		t.Errorf("flagURL should stay default; got %q", flagURL)
	}
	if flagKey != "" {
		t.Errorf("flagKey should stay empty; got %q", flagKey)
	}
}

func TestResolveConfigEnvNotOverriddenByFile(t *testing.T) {
	home := isolate(t)
	t.Setenv("WIFIMAP_API_KEY", "env-wins-key")
	writeConfigFile(t, home, "url: http://file:9000\napi_key: file-key\n")

	resolveConfig()

	if flagKey != "env-wins-key" {
		t.Errorf("flagKey should be env value; got %q", flagKey)
	}
	if flagURL != "http://file:9000" {
		t.Errorf("flagURL should come from file; got %q", flagURL)
	}
}

func TestResolveConfigProfileSelection(t *testing.T) {
	content := `
active_profile: default
profiles:
  default:
    url: http://default:3031
  field:
    url: http://laptop:4040
`

	t.Run("flag", func(t *testing.T) {
		home := isolate(t)
		writeConfigFile(t, home, content)
		flagProfile = "field"

		resolveConfig()

		if flagURL != "http://laptop:4040" {
			t.Errorf("flagURL: got %q", flagURL)
		}
	})

	t.Run("env", func(t *testing.T) {
		home := isolate(t)
		writeConfigFile(t, home, content)
		t.Setenv("WIFIMAP_PROFILE", "field")

		resolveConfig()

		if flagURL != "http://laptop:4040" {
			t.Errorf("flagURL: got %q", flagURL)
		}
	})
}

func TestSaveProfileRoundTrip(t *testing.T) {
	home := isolate(t)

	path, err := saveProfile("", "http://nas:3031", "k1")
	if err != nil {
		t.Fatalf("saveProfile: %v", err)
	}
	if path != filepath.Join(home, ".wifimap", "config.yaml") {
		t.Errorf("path: got %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.ActiveProfile != "default" || cfg.Profiles["default"].URL != "http://nas:3031" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	resolveConfig()
	if flagURL != "http://nas:3031" || flagKey != "k1" {
		t.Errorf("resolved: url %q key %q", flagURL, flagKey)
	}
}

func TestSaveProfileKeepsOthers(t *testing.T) {
	isolate(t)

	if _, err := saveProfile("home", "http://home:3031", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := saveProfile("field", "http://field:3031", "fk"); err != nil {
		t.Fatal(err)
	}

	_, cfg, err := loadConfigFile()
	if err != nil || cfg == nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if len(cfg.Profiles) != 2 || cfg.Profiles["home"].URL != "http://home:3031" {
		t.Errorf("profiles: %+v", cfg.Profiles)
	}
	if cfg.ActiveProfile != "field" {
		t.Errorf("active profile: got %q", cfg.ActiveProfile)
	}
}

func TestSettleDoesNotMutateFlags(t *testing.T) {
	isolate(t)
	t.Setenv("WIFIMAP_API_KEY", "env-key")

	cfg := &configFile{
		Profiles: map[string]profileConfig{"default": {URL: "http://profile:1", APIKey: "profile-key"}},
	}
	s := settle(cfg, flagURL, flagKey, flagProfile)
	if s.URL != "http://profile:1" {
		t.Errorf("url: got %q", s.URL)
	}
	if s.APIKey != "env-key" {
		t.Errorf("key: got %q", s.APIKey)
	}
	if s.Profile != "default" {
		t.Errorf("profile: got %q", s.Profile)
	}
	if flagURL != defaultURL {
		t.Errorf("settle must not mutate flags; flagURL=%q", flagURL)
	}
}
