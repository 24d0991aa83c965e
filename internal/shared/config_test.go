package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./vorplay.db" {
			t.Errorf("expected database path ./vorplay.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "http://127.0.0.1:4000/api" {
			t.Errorf("expected api base URL http://127.0.0.1:4000/api, got %s", config.API.BaseURL)
		}

		if config.API.RequestTimeout() != 15*time.Second {
			t.Errorf("expected 15s timeout, got %v", config.API.RequestTimeout())
		}

		if config.Server.Addr() != "127.0.0.1:4000" {
			t.Errorf("expected dev server addr 127.0.0.1:4000, got %s", config.Server.Addr())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://api.vorplay.test"
rate_limit = 2.5

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://api.vorplay.test" {
			t.Errorf("expected base URL from file, got %s", config.API.BaseURL)
		}
		if config.API.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.API.RateLimit)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.API.Timeout != 15 {
			t.Errorf("expected unspecified timeout to keep default 15, got %d", config.API.Timeout)
		}
	})

	t.Run("LoadConfig With Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("VORPLAY_API_URL", "https://env.vorplay.test")
		t.Setenv("VORPLAY_API_TIMEOUT", "3")
		t.Setenv("VORPLAY_LOG_LEVEL", "debug")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("failed to apply env: %v", err)
		}

		if config.API.BaseURL != "https://env.vorplay.test" {
			t.Errorf("expected env base URL, got %s", config.API.BaseURL)
		}
		if config.API.Timeout != 3 {
			t.Errorf("expected env timeout 3, got %d", config.API.Timeout)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected env log level debug, got %s", config.Log.Level)
		}
		if config.Database.Path != "./vorplay.db" {
			t.Errorf("unset env var should keep default database path, got %s", config.Database.Path)
		}
	})

	t.Run("ApplyEnv With Invalid Number", func(t *testing.T) {
		t.Setenv("VORPLAY_API_TIMEOUT", "soon")

		if err := ApplyEnv(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ResolveConfig Without File", func(t *testing.T) {
		config, err := ResolveConfig(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected defaults when file is missing, got %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("expected default database path, got %s", config.Database.Path)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "missing base url", mutate: func(c *Config) { c.API.BaseURL = "" }},
			{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -1 }},
			{name: "negative rate limit", mutate: func(c *Config) { c.API.RateLimit = -2 }},
			{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
