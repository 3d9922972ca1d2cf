package config

import (
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected a missing file to load defaults, got %v", err)
	}
	if cfg.History.Depth != 100 || cfg.History.NewGroupDelayMS != 500 {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.History.NewGroupDelay() != 500*time.Millisecond {
		t.Errorf("expected 500ms group delay, got %v", cfg.History.NewGroupDelay())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.toml")
	content := `
[logging]
level = "debug"

[history]
depth = 10
new-group-delay-ms = 250

[view]
tab-width = 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug, got %q", cfg.Logging.Level)
	}
	if cfg.History.Depth != 10 || cfg.History.NewGroupDelayMS != 250 {
		t.Errorf("unexpected history: %+v", cfg.History)
	}
	if cfg.View.TabWidth != 8 {
		t.Errorf("expected tab width 8, got %d", cfg.View.TabWidth)
	}
	// Unset sections keep their defaults.
	if !cfg.Scripting.Enabled || cfg.Scripting.Dir != "plugins" {
		t.Errorf("expected scripting defaults, got %+v", cfg.Scripting)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.toml")
	if err := os.WriteFile(path, []byte("[history]\ndepth = 10\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("INKWELL_HISTORY_DEPTH", "7")
	t.Setenv("INKWELL_LOG_LEVEL", "warn")
	t.Setenv("INKWELL_SCRIPTING_ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.History.Depth != 7 {
		t.Errorf("expected env to win with 7, got %d", cfg.History.Depth)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn, got %q", cfg.Logging.Level)
	}
	if cfg.Scripting.Enabled {
		t.Error("expected scripting disabled via env")
	}
}

func TestValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.toml")
	cases := []struct {
		name    string
		content string
	}{
		{"bad level", "[logging]\nlevel = \"loud\"\n"},
		{"zero depth", "[history]\ndepth = 0\n"},
		{"negative delay", "[history]\nnew-group-delay-ms = -1\n"},
		{"malformed", "[history\n"},
	}
	for _, c := range cases {
		if err := os.WriteFile(path, []byte(c.content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkwell.toml")
	if err := os.WriteFile(path, []byte("[history]\ndepth = 10\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reloaded := make(chan Config, 1)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[history]\ndepth = 42\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.History.Depth != 42 {
			t.Errorf("expected reloaded depth 42, got %d", cfg.History.Depth)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherKeepsOldConfigOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkwell.toml")
	if err := os.WriteFile(path, []byte("[history]\ndepth = 10\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reloaded := make(chan Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg Config) {
		reloaded <- cfg
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[history\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("expected no reload for a malformed file, got %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
