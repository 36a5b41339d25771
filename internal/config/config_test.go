package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr = %s, want :8080", cfg.HTTP.Addr)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("default environment should be development")
	}
	if cfg.Explain.Timeout != 15*time.Second {
		t.Fatalf("explain timeout = %s", cfg.Explain.Timeout)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Cache.DBPath != "course_matrix.db" {
		t.Fatalf("db path = %s", cfg.Cache.DBPath)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
environment: production
http:
  addr: ":9090"
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr = %s, want :9090", cfg.HTTP.Addr)
	}
	if cfg.Environment != "production" {
		t.Fatalf("environment = %s", cfg.Environment)
	}
	// Untouched keys keep defaults.
	if cfg.Data.StreamsPath != "data/streams.json" {
		t.Fatalf("streams path = %s", cfg.Data.StreamsPath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("COMPASS_ADDR", ":7070")
	t.Setenv("COMPASS_WATCH", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env should win: addr = %s", cfg.HTTP.Addr)
	}
	if cfg.Data.Watch {
		t.Fatal("COMPASS_WATCH=false should disable watching")
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
