package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("poll interval: got %v, want 5s", cfg.PollInterval())
	}
	if cfg.Lookback() != 2*time.Hour {
		t.Errorf("lookback: got %v, want 2h", cfg.Lookback())
	}
	if cfg.Engine.RetentionDays != 90 {
		t.Errorf("retention: got %d, want 90", cfg.Engine.RetentionDays)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("database_path: /tmp/x.db\nengine:\n  poll_interval: 2s\n  retention_days: 30\n")
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/x.db" {
		t.Errorf("database_path: got %q", cfg.DatabasePath)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("poll interval: got %v, want 2s", cfg.PollInterval())
	}
	if cfg.Engine.RetentionDays != 30 {
		t.Errorf("retention: got %d, want 30", cfg.Engine.RetentionDays)
	}
	// Untouched keys keep defaults
	if cfg.ResponseTimeout() != 30*time.Second {
		t.Errorf("response timeout: got %v, want 30s", cfg.ResponseTimeout())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REFOCUSD_DB", "/tmp/env.db")
	t.Setenv("REFOCUSD_POLL", "1s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/env.db" {
		t.Errorf("database_path: got %q", cfg.DatabasePath)
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("poll interval: got %v, want 1s", cfg.PollInterval())
	}
}

func TestBadDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.PollInterval = "soon"
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("got %v, want fallback 5s", cfg.PollInterval())
	}
	cfg.Engine.Lookback = "-1h"
	if cfg.Lookback() != 2*time.Hour {
		t.Errorf("got %v, want fallback 2h", cfg.Lookback())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Engine.PollInterval = "7s"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.PollInterval() != 7*time.Second {
		t.Errorf("poll interval: got %v, want 7s", loaded.PollInterval())
	}
}
