// Package config holds the host process configuration. The API key is
// deliberately absent: it is user-supplied runtime state kept in the
// storage collaborator, not deployment configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all replyassist host configuration.
type Config struct {
	// Model API settings
	Model ModelConfig `yaml:"model"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Padding of partial suggestion lists
	PadSuggestions bool `yaml:"pad_suggestions"`
}

// ModelConfig configures the Gemini client.
type ModelConfig struct {
	Name            string  `yaml:"name"`
	BaseURL         string  `yaml:"base_url"`
	Timeout         string  `yaml:"timeout"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TopP            float64 `yaml:"top_p"`
	TopK            int     `yaml:"top_k"`
}

// StorageConfig configures the SQLite key-value store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// DefaultConfig returns the default configuration rooted under the
// user's home directory.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".replyassist")
	return &Config{
		Model: ModelConfig{
			Name:            "gemini-2.5-flash",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "30s",
			Temperature:     0.8,
			MaxOutputTokens: 200,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(base, "assistant.db"),
		},
		Logging: LoggingConfig{
			File: filepath.Join(base, "host.log"),
		},
		PadSuggestions: true,
	}
}

// Load reads configuration from path, filling unset fields from the
// defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ModelTimeout parses the model timeout string, falling back to 30s.
func (c *Config) ModelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Model.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
