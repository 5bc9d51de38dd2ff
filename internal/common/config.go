package common

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Poll    PollConfig    `yaml:"poll"`
	Store   StoreConfig   `yaml:"store"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds the remote extraction service connection settings.
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PollConfig holds job polling settings.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// StoreConfig holds the local cache database settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ExportConfig holds export defaults; per-run flags override these.
type ExportConfig struct {
	Dir               string `yaml:"dir"`
	IncludeConfidence bool   `yaml:"include_confidence"`
	IncludeSourceText bool   `yaml:"include_source_text"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for docsift.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "docsift")
}

// DataDir returns the XDG data directory for docsift.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "docsift")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/docsift/config.yaml > ./config.yaml.
// An empty return with nil error means no file; defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	xdg := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdg); err == nil {
		return xdg, nil
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}
	return "", nil
}

// LoadConfig reads the YAML config at path (optional), applies defaults,
// then environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Timeout: 30 * time.Second,
		},
		Poll: PollConfig{
			Interval: 2 * time.Second,
		},
		Store: StoreConfig{
			Path: filepath.Join(DataDir(), "docsift.db"),
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Service.BaseURL = getEnv("DOCSIFT_SERVICE_URL", cfg.Service.BaseURL)
	cfg.Service.Timeout = getEnvAsDuration("DOCSIFT_REQUEST_TIMEOUT", cfg.Service.Timeout)
	cfg.Poll.Interval = getEnvAsDuration("DOCSIFT_POLL_INTERVAL", cfg.Poll.Interval)
	cfg.Store.Path = getEnv("DOCSIFT_DB_PATH", cfg.Store.Path)
	cfg.Logging.Level = getEnv("DOCSIFT_LOG_LEVEL", cfg.Logging.Level)

	return cfg, nil
}

// Validate checks the loaded configuration for required settings.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "service.base_url (or DOCSIFT_SERVICE_URL) is required", ErrInvalidRequest)
	}
	if c.Service.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "service.timeout must be positive", ErrInvalidRequest)
	}
	if c.Poll.Interval <= 0 {
		return NewAppError("CONFIG_ERROR", "poll.interval must be positive", ErrInvalidRequest)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
