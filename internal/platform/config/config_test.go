package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"webtally/internal/platform/config"
	apperrors "webtally/internal/platform/errors"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	cfg, err := config.Load(home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tracking.EmitInterval != 10*time.Second || cfg.Tracking.IdleThreshold != 30*time.Second {
		t.Fatalf("unexpected tracking defaults: %+v", cfg.Tracking)
	}
	if cfg.Sync.StaleAfter != time.Hour {
		t.Fatalf("unexpected stale_after: %s", cfg.Sync.StaleAfter)
	}
	if cfg.DBPath != filepath.Join(home, ".webtally", "webtally.db") {
		t.Fatalf("unexpected db path: %s", cfg.DBPath)
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".webtally"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	raw := []byte("timezone: UTC\nremote:\n  base_url: https://tally.example\n  timeout: 3s\nsync:\n  interval: 5m\nblocking:\n  backend: file\n")
	if err := os.WriteFile(filepath.Join(home, ".webtally", "config.yaml"), raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.BaseURL != "https://tally.example" || cfg.Remote.Timeout != 3*time.Second {
		t.Fatalf("remote not overridden: %+v", cfg.Remote)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Fatalf("sync interval not overridden: %s", cfg.Sync.Interval)
	}
	if cfg.Sync.StaleAfter != time.Hour {
		t.Fatalf("untouched default lost: %s", cfg.Sync.StaleAfter)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("unexpected location: %v %v", loc, err)
	}
}

func TestValidateRejectsPluginBackendWithoutBinary(t *testing.T) {
	t.Parallel()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cfg.Blocking.Backend = "plugin"
	if err := cfg.Validate(); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNewRequiresHome(t *testing.T) {
	t.Parallel()
	if _, err := config.New(" "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
