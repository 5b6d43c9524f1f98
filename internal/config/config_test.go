package config

import (
	"path/filepath"
	"testing"
)

func TestManager_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := m.Get()
	if cfg.ServerPort != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.ServerPort)
	}
	if cfg.Gate.ChangeThreshold != 0.035 {
		t.Errorf("default threshold = %v, want 0.035", cfg.Gate.ChangeThreshold)
	}
	if cfg.Gate.MinIntervalSeconds != 0.2 || cfg.Gate.MaxIntervalSeconds != 1.0 {
		t.Errorf("default interval bounds = [%v, %v], want [0.2, 1.0]",
			cfg.Gate.MinIntervalSeconds, cfg.Gate.MaxIntervalSeconds)
	}
	if cfg.Gate.HistorySize != 10 {
		t.Errorf("default history size = %d, want 10", cfg.Gate.HistorySize)
	}
}

func TestManager_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := m.Get()
	cfg.ServerPort = 9090
	cfg.Source.Backend = SourceBackendX11
	if err := m.Update(&cfg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got := reloaded.Get()
	if got.ServerPort != 9090 {
		t.Errorf("reloaded port = %d, want 9090", got.ServerPort)
	}
	if got.Source.Backend != SourceBackendX11 {
		t.Errorf("reloaded backend = %q, want x11", got.Source.Backend)
	}
}

func TestManager_UpdateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	cfg := m.Get()
	cfg.ServerPort = -1
	if err := m.Update(&cfg); err == nil {
		t.Error("negative port accepted")
	}

	cfg = m.Get()
	cfg.Gate.MinIntervalSeconds = 2.0
	cfg.Gate.MaxIntervalSeconds = 1.0
	if err := m.Update(&cfg); err == nil {
		t.Error("inverted interval bounds accepted")
	}
}
