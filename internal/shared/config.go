package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig points the client at the Vorplay backend and the hosted web client.
type APIConfig struct {
	BaseURL   string  `toml:"base_url" env:"VORPLAY_API_URL"`
	WebURL    string  `toml:"web_url" env:"VORPLAY_WEB_URL"`
	Timeout   int     `toml:"timeout" env:"VORPLAY_API_TIMEOUT"`
	RateLimit float64 `toml:"rate_limit" env:"VORPLAY_API_RATE_LIMIT"`
}

// RequestTimeout returns Timeout as a [time.Duration]; zero disables the client timeout.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// DatabaseConfig contains settings for the local SQLite store holding the persisted session.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"VORPLAY_DB_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the listen address of the development API server.
type ServerConfig struct {
	Host string `toml:"host" env:"VORPLAY_DEV_HOST"`
	Port int    `toml:"port" env:"VORPLAY_DEV_PORT"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig controls logger verbosity and the TUI log file.
type LogConfig struct {
	Level string `toml:"level" env:"VORPLAY_LOG_LEVEL"`
	File  string `toml:"file" env:"VORPLAY_LOG_FILE"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads path when it exists (defaults otherwise) and applies environment overrides.
//
// A .env file in the working directory is loaded first; a missing .env is not an error.
func ResolveConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// ApplyEnv overrides config fields from VORPLAY_* environment variables. Unset variables leave fields untouched.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports configuration values the client cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
