package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Expected default backend file, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.UndoDepth != 50 {
		t.Errorf("Expected default undo depth 50, got %d", cfg.Storage.UndoDepth)
	}
	if cfg.Geocoding.DelayMs != 200 {
		t.Errorf("Expected default geocode delay 200ms, got %d", cfg.Geocoding.DelayMs)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
storage:
  backend: duckdb
  dataDir: /tmp/mapdata
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "duckdb" {
		t.Errorf("Expected backend duckdb, got %s", cfg.Storage.Backend)
	}
	// untouched keys keep their defaults
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected default host, got %s", cfg.Server.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [not a map"), 0644)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected an error for malformed YAML")
	}
}

func TestEnvOverridesGeocodingKey(t *testing.T) {
	t.Setenv("AZURE_MAPS_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Geocoding.SubscriptionKey != "env-key" {
		t.Errorf("Expected env key override, got %q", cfg.Geocoding.SubscriptionKey)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9999
	cfg.Storage.DataDir = "/var/lib/mapper"

	if got := cfg.Addr(); got != "0.0.0.0:9999" {
		t.Errorf("Addr() = %s", got)
	}
	if got := cfg.WorkspacePath(); got != "/var/lib/mapper/workspace.json" {
		t.Errorf("WorkspacePath() = %s", got)
	}
	if got := cfg.DuckDBPath(); got != "/var/lib/mapper/workspace.duckdb" {
		t.Errorf("DuckDBPath() = %s", got)
	}
}
