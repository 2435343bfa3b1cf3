package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
targets:
  - path: /local/work/
    age: 7d
  - path: /tmp/scratch
    age: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(cfg.Targets))
	}
	if cfg.Targets[0].Path != "/local/work" {
		t.Errorf("Expected cleaned path /local/work, got %s", cfg.Targets[0].Path)
	}
	if cfg.Targets[0].Age.Duration() != 7*24*time.Hour {
		t.Errorf("Expected age 7d, got %v", cfg.Targets[0].Age.Duration())
	}
	if cfg.Targets[1].Age.Duration() != 0 {
		t.Errorf("Expected age 0, got %v", cfg.Targets[1].Age.Duration())
	}
	if cfg.Marker != DefaultMarker {
		t.Errorf("Expected marker %s, got %s", DefaultMarker, cfg.Marker)
	}
	if cfg.Interval() != 15*time.Minute {
		t.Errorf("Expected 15m interval, got %v", cfg.Interval())
	}
	if cfg.PrometheusAddress() != ":9090" || !cfg.MetricsEnabled() {
		t.Errorf("Expected metrics on :9090, got %s enabled=%v", cfg.PrometheusAddress(), cfg.MetricsEnabled())
	}
	if cfg.Logging.RotationDays != 30 {
		t.Errorf("Expected rotation_days 30, got %d", cfg.Logging.RotationDays)
	}
	if cfg.DatabasePath != "/var/lib/stale-cleaner/deletions.db" {
		t.Errorf("Unexpected default database path %s", cfg.DatabasePath)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
targets:
  - path: /data/cache
    age: 1d12h
marker: .pin
interval_minutes: 60
database_path: /srv/db/history.db
protected_paths: [/data/cache/important/]
prometheus:
  port: -1
logging:
  dir: /srv/log
  rotation_days: 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Marker != ".pin" {
		t.Errorf("Expected marker .pin, got %s", cfg.Marker)
	}
	if cfg.Interval() != time.Hour {
		t.Errorf("Expected 1h interval, got %v", cfg.Interval())
	}
	if cfg.MetricsEnabled() {
		t.Error("Negative port should disable metrics")
	}
	if cfg.ProtectedPaths[0] != "/data/cache/important" {
		t.Errorf("Expected cleaned protected path, got %s", cfg.ProtectedPaths[0])
	}
	if cfg.Logging.Dir != "/srv/log" || cfg.Logging.RotationDays != 7 {
		t.Errorf("Unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		substr  string
	}{
		{"no targets", "marker: .keep\n", errNoTargets, ""},
		{"relative path", "targets:\n  - path: work\n    age: 1h\n", errInvalidPath, ""},
		{"empty path", "targets:\n  - age: 1h\n", errInvalidPath, ""},
		{"negative age", "targets:\n  - path: /w\n    age: -1h\n", errNegativeAge, ""},
		{"bad age", "targets:\n  - path: /w\n    age: soon\n", nil, "invalid age"},
		{"duplicate", "targets:\n  - path: /w\n    age: 1h\n  - path: /w/\n    age: 2h\n", errDupTarget, ""},
		{"nested", "targets:\n  - path: /w\n    age: 1h\n  - path: /w/sub\n    age: 2h\n", errNestedTarget, ""},
		{"marker with slash", "targets:\n  - path: /w\n    age: 1h\nmarker: a/b\n", errInvalidMarker, ""},
		{"unknown field", "targets:\n  - path: /w\n    age: 1h\nscan_paths: [/x]\n", nil, "scan_paths"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Expected error containing %q, got %v", tt.substr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
