package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/devdeck/dd-cli/internal/paths"
)

// DefaultServerURL is used when neither the config file, the environment,
// nor the --server flag names a dashboard.
const DefaultServerURL = "http://localhost:3000"

// Config holds the credentials and server address for the dashboard.
type Config struct {
	APIKey    string `yaml:"api_key"`
	ServerURL string `yaml:"server_url"`

	// Source is the file the config was loaded from, empty when no config
	// file was found.
	Source string `yaml:"-"`
}

// Load reads the first config file found on the search path, then applies
// environment overrides. A missing config file is not an error; commands
// that need credentials report that at the point of use.
func Load(explicit string) (*Config, error) {
	cfg := &Config{}

	for _, path := range paths.ConfigSearchPaths(explicit) {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit != "" && path == explicit {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Source = path
		break
	}

	if v := os.Getenv("DEVDECK_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DEVDECK_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	return cfg, nil
}

// Save writes the config to path with owner-only permissions, creating the
// parent directory if needed. The file holds an API key, hence 0600.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
