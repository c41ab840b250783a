package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}
}

func TestLoad_DefaultsWithoutSettingsFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected backend %q, got %q", BackendMemory, cfg.StoreBackend)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level 'info', got %q", cfg.LogLevel)
	}
	if cfg.Match.Rate != 0.5 {
		t.Errorf("expected match rate 0.5, got %v", cfg.Match.Rate)
	}
	if cfg.CameraPermission != "granted" {
		t.Errorf("expected camera permission 'granted', got %q", cfg.CameraPermission)
	}
}

func TestLoad_SettingsFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeSettings(t, tmpDir, `
store_backend: sqlite
log_format: json
camera_permission: denied
match:
  rate: 0.25
  seed: 7
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.StoreBackend != BackendSQLite {
		t.Errorf("expected backend %q, got %q", BackendSQLite, cfg.StoreBackend)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected log format 'json', got %q", cfg.LogFormat)
	}
	if cfg.CameraPermission != "denied" {
		t.Errorf("expected camera permission 'denied', got %q", cfg.CameraPermission)
	}
	if cfg.Match.Rate != 0.25 || cfg.Match.Seed != 7 {
		t.Errorf("unexpected match config: %+v", cfg.Match)
	}
	if cfg.SettingsDir != tmpDir {
		t.Errorf("expected settings dir %q, got %q", tmpDir, cfg.SettingsDir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeSettings(t, tmpDir, "store_backend: sqlite\nlog_level: warn\n")

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("MATCH_RATE", "1")
	t.Setenv("MATCH_SEED", "42")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected env backend %q, got %q", BackendMemory, cfg.StoreBackend)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected file log level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.Match.Rate != 1 || cfg.Match.Seed != 42 {
		t.Errorf("unexpected match config: %+v", cfg.Match)
	}
}

func TestLoad_SettingsDirFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	writeSettings(t, tmpDir, "log_level: debug\n")
	t.Setenv("SETTINGS_DIR", tmpDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "rate above one", env: map[string]string{"MATCH_RATE": "1.5"}},
		{name: "unparsable rate", env: map[string]string{"MATCH_RATE": "often"}},
		{name: "negative seed", env: map[string]string{"MATCH_SEED": "-1"}},
		{name: "unknown permission", env: map[string]string{"CAMERA_PERMISSION": "maybe"}},
		{name: "malformed yaml", file: "match: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.file != "" {
				writeSettings(t, tmpDir, tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := Load(tmpDir); err == nil {
				t.Error("expected error")
			}
		})
	}
}
