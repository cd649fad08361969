package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsWhenNoFileAndNoEnv(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.MaxSteps != 20 {
		t.Errorf("default max_steps = %d, want 20", cfg.Engine.MaxSteps)
	}
	if cfg.Stream.PollInterval != time.Second {
		t.Errorf("default poll interval = %v, want 1s", cfg.Stream.PollInterval)
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planforge.yaml")
	yaml := `
server:
  port: "9090"
engine:
  max_steps: 5
mcp:
  max_retries: 7
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Engine.MaxSteps != 5 {
		t.Errorf("max_steps = %d, want 5", cfg.Engine.MaxSteps)
	}
	if cfg.MCP.MaxRetries != 7 {
		t.Errorf("max_retries = %d, want 7", cfg.MCP.MaxRetries)
	}
	// Untouched sections keep their defaults.
	if cfg.Engine.Workers != 8 {
		t.Errorf("workers = %d, want default 8", cfg.Engine.Workers)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planforge.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PLANFORGE_PORT", "7070")
	t.Setenv("PLANFORGE_STREAM_MAX_LIFETIME", "2m")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, want env value 7070", cfg.Server.Port)
	}
	if cfg.Stream.MaxLifetime != 2*time.Minute {
		t.Errorf("max_lifetime = %v, want 2m", cfg.Stream.MaxLifetime)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("PLANFORGE_ENGINE_WORKERS", "0")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected validation error for workers=0")
	}
}

func TestMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planforge.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error for malformed yaml")
	}
}
