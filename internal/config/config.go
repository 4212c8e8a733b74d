// Package config loads the server configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		ReadTimeout  int    `yaml:"readTimeoutSeconds"`
		WriteTimeout int    `yaml:"writeTimeoutSeconds"`
		EnableCORS   bool   `yaml:"enableCors"`
		AllowOrigins string `yaml:"allowOrigins"`
		BodyLimit    string `yaml:"bodyLimit"`
	} `yaml:"server"`

	Storage struct {
		DataDir string `yaml:"dataDir"`
		// Backend selects the document store: "file" or "duckdb".
		Backend         string `yaml:"backend"`
		AutoSaveSeconds int    `yaml:"autoSaveSeconds"`
		UndoDepth       int    `yaml:"undoDepth"`
	} `yaml:"storage"`

	Geocoding struct {
		SubscriptionKey string `yaml:"subscriptionKey"`
		DelayMs         int    `yaml:"delayMs"`
	} `yaml:"geocoding"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 30
	cfg.Server.WriteTimeout = 60
	cfg.Server.EnableCORS = true
	cfg.Server.BodyLimit = "50M"
	cfg.Storage.DataDir = "./data"
	cfg.Storage.Backend = "file"
	cfg.Storage.AutoSaveSeconds = 30
	cfg.Storage.UndoDepth = 50
	cfg.Geocoding.DelayMs = 200
	cfg.Logging.Level = "info"
	cfg.Logging.Pretty = true
	return cfg
}

// Load reads the YAML config at path, falling back to defaults when the
// file does not exist. The AZURE_MAPS_KEY environment variable overrides
// the geocoding key.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if key := os.Getenv("AZURE_MAPS_KEY"); key != "" {
		cfg.Geocoding.SubscriptionKey = key
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// WorkspacePath returns the file-backend document path.
func (c *Config) WorkspacePath() string {
	return filepath.Join(c.Storage.DataDir, "workspace.json")
}

// DuckDBPath returns the duckdb-backend database path.
func (c *Config) DuckDBPath() string {
	return filepath.Join(c.Storage.DataDir, "workspace.duckdb")
}

// EnsureDirectories creates the data directory tree.
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(c.Storage.DataDir, 0755)
}
