package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("Expected 5s poll interval, got %v", cfg.PollInterval())
	}
	if cfg.DebounceWindow() != 300*time.Millisecond {
		t.Errorf("Expected 300ms debounce, got %v", cfg.DebounceWindow())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
relay:
  base_url: http://relay.internal:9000
  push_url: ws://relay.internal:9000/events
  timeout_seconds: 20
poll:
  interval_seconds: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Relay.BaseURL != "http://relay.internal:9000" {
		t.Errorf("Unexpected base url %q", cfg.Relay.BaseURL)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("Expected 2s poll interval, got %v", cfg.PollInterval())
	}
	// Untouched sections keep their defaults.
	if cfg.Store.DebounceWindowMillis != 300 {
		t.Errorf("Expected default debounce, got %d", cfg.Store.DebounceWindowMillis)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
relay:
  base_url: http://from-file:9000
`)
	t.Setenv("COPIER_RELAY_URL", "http://from-env:9000")
	t.Setenv("COPIER_POLL_INTERVAL", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Relay.BaseURL != "http://from-env:9000" {
		t.Errorf("Expected env override, got %q", cfg.Relay.BaseURL)
	}
	if cfg.Poll.IntervalSeconds != 7 {
		t.Errorf("Expected env poll interval, got %d", cfg.Poll.IntervalSeconds)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
relay:
  base_url: not-a-url
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation error for malformed base url")
	}

	path = writeConfig(t, `
store:
  debounce_window_millis: 10
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation error for out-of-range debounce")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
