package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_Full(t *testing.T) {
	path := writeConfig(t, `
backend:
  origin: https://api.ordernow.example
  timeout: 10s
  owner_id: owner1
orders:
  poll_interval: 5s
metrics:
  path: data/metrics.db
  buffer_size: 200
  flush_interval: 2s
inspect:
  addr: 127.0.0.1:9090
offline:
  disabled: true
log_level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Backend.Origin != "https://api.ordernow.example" {
		t.Errorf("origin = %q", cfg.Backend.Origin)
	}
	if cfg.Backend.Timeout.Std() != 10*time.Second {
		t.Errorf("timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Backend.OwnerID != "owner1" {
		t.Errorf("owner_id = %q", cfg.Backend.OwnerID)
	}
	if cfg.Orders.PollInterval.Std() != 5*time.Second {
		t.Errorf("poll_interval = %v", cfg.Orders.PollInterval)
	}
	if cfg.Metrics.Path != "data/metrics.db" || cfg.Metrics.BufferSize != 200 {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
	if cfg.Inspect.Addr != "127.0.0.1:9090" {
		t.Errorf("inspect = %+v", cfg.Inspect)
	}
	if !cfg.Offline.Disabled {
		t.Error("offline.disabled not parsed")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
}

func TestLoadFile_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
backend:
  origin: http://localhost:3000
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Backend.Timeout.Std() != 30*time.Second {
		t.Errorf("timeout = %v, want 30s default", cfg.Backend.Timeout)
	}
	if cfg.Orders.PollInterval.Std() != 15*time.Second {
		t.Errorf("poll_interval = %v, want 15s default", cfg.Orders.PollInterval)
	}
	if cfg.Metrics.BufferSize != 100 || cfg.Metrics.FlushInterval.Std() != 5*time.Second {
		t.Errorf("metrics defaults = %+v", cfg.Metrics)
	}
	if cfg.Offline.Disabled {
		t.Error("offline enabled by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want info default", cfg.LogLevel)
	}
}

func TestLoadFile_MissingOrigin(t *testing.T) {
	path := writeConfig(t, `
orders:
  poll_interval: 5s
`)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for missing backend.origin")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeConfig(t, "backend: [not a mapping")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Backend.Origin == "" {
		t.Fatal("default origin empty")
	}
	if cfg.Orders.PollInterval.Std() != 15*time.Second {
		t.Fatalf("poll_interval = %v", cfg.Orders.PollInterval)
	}
}
