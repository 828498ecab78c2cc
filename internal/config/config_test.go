package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Server.Port)
	}
	if cfg.Mongo.URI == "" || cfg.Mongo.Database == "" {
		t.Error("expected mongo defaults to be set")
	}
	if cfg.Uploads.MaxFileSizeMB != 10 {
		t.Errorf("expected default upload limit 10 MB, got %d", cfg.Uploads.MaxFileSizeMB)
	}
	if cfg.Tunnel.Enabled {
		t.Error("expected tunnel disabled by default")
	}

	// Every field except the app name has a default
	if cfg.App.Name != "" {
		t.Errorf("expected no default app name, got %q", cfg.App.Name)
	}
	cfg.App.Name = "cadenza-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults with an app name should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }},
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty mongo uri", func(c *Config) { c.Mongo.URI = "" }},
		{"zero upload limit", func(c *Config) { c.Uploads.MaxFileSizeMB = 0 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeout = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.App.Name = "cadenza-test"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	t.Setenv("APP_NAME", "cadenza-test")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("expected defaults in created config, got port %s", cfg.Server.Port)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file written to %s: %v", path, err)
	}

	// A second load parses the file it just wrote
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("reloading the written config failed: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_NAME", "cadenza-test")
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")
	t.Setenv("MONGO_DBNAME", "cadenza_prod")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("MAX_FILE_SIZE_MB", "25")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.App.Name != "cadenza-test" {
		t.Errorf("expected APP_NAME override, got %q", cfg.App.Name)
	}
	if cfg.Mongo.URI != "mongodb://db.internal:27017" {
		t.Errorf("expected MONGO_URI override, got %q", cfg.Mongo.URI)
	}
	if cfg.Mongo.Database != "cadenza_prod" {
		t.Errorf("expected MONGO_DBNAME override, got %q", cfg.Mongo.Database)
	}
	if cfg.Admin.Email != "admin@example.com" {
		t.Errorf("expected ADMIN_EMAIL override, got %q", cfg.Admin.Email)
	}
	if cfg.Uploads.MaxFileSizeMB != 25 {
		t.Errorf("expected MAX_FILE_SIZE_MB override, got %d", cfg.Uploads.MaxFileSizeMB)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.MaxUploadBytes(); got != 10*1024*1024 {
		t.Errorf("expected 10 MB in bytes, got %d", got)
	}
}
