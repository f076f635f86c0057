package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeoutSecs != DefaultConfig().RequestTimeoutSecs {
		t.Fatalf("RequestTimeoutSecs = %d, want %d", cfg.RequestTimeoutSecs, DefaultConfig().RequestTimeoutSecs)
	}
	if cfg.MaxRangeMinutes != 60*24*365*5 {
		t.Fatalf("MaxRangeMinutes = %d, want five years", cfg.MaxRangeMinutes)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("RequestTimeout() = %v, want 30s", cfg.RequestTimeout())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	body := `{"server_url": "https://tracker.example.net", "request_timeout_secs": 5, "default_windows": [60, 1440]}`
	if err := os.WriteFile(configPath, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "https://tracker.example.net" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeoutSecs != 5 {
		t.Errorf("RequestTimeoutSecs = %d, want 5", cfg.RequestTimeoutSecs)
	}
	if len(cfg.DefaultWindows) != 2 || cfg.DefaultWindows[1] != 1440 {
		t.Errorf("DefaultWindows = %v, want [60 1440]", cfg.DefaultWindows)
	}
	if cfg.UUIDCacheTTLSecs != DefaultConfig().UUIDCacheTTLSecs {
		t.Errorf("UUIDCacheTTLSecs = %d, want default", cfg.UUIDCacheTTLSecs)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["player_sessions", "names_list"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "player_sessions" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "player_sessions")
	}
	if cfg.DisabledTools[1] != "names_list" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "names_list")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"server_url": "https://global.example.net", "categories": ["Staff"], "disabled_tools": ["names_list"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	repoDir := filepath.Join(repoRoot, DirName)
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"server_url": "https://repo.example.net", "categories": ["Guests", "Staff"]}`
	if err := os.WriteFile(filepath.Join(repoDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Start below the repo root to exercise the upward walk
	startDir := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(startDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, startDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.ServerURL != "https://repo.example.net" {
		t.Errorf("ServerURL = %q, want repo override", cfg.ServerURL)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0] != "Staff" || cfg.Categories[1] != "Guests" {
		t.Errorf("Categories = %v, want [Staff Guests]", cfg.Categories)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "names_list" {
		t.Errorf("DisabledTools = %v, want [names_list]", cfg.DisabledTools)
	}
	if cfg.RequestTimeoutSecs != 30 {
		t.Errorf("RequestTimeoutSecs = %d, want default 30", cfg.RequestTimeoutSecs)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.ServerURL != "" {
		t.Errorf("ServerURL = %q, want empty", cfg.ServerURL)
	}
	if cfg.NameMapTTLSecs != DefaultConfig().NameMapTTLSecs {
		t.Errorf("NameMapTTLSecs = %d, want default", cfg.NameMapTTLSecs)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerURL = "https://file.example.net"

	env := map[string]string{
		EnvServer:    " https://env.example.net ",
		EnvLogFormat: "json",
	}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.ServerURL != "https://env.example.net" {
		t.Errorf("ServerURL = %q, want env override", cfg.ServerURL)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want unchanged info", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty server allowed", Config{}, false},
		{"https server", Config{ServerURL: "https://tracker.example.net"}, false},
		{"bad scheme", Config{ServerURL: "ftp://tracker.example.net"}, true},
		{"reserved category", Config{Categories: []string{"all"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge_ScalarsAndArrays(t *testing.T) {
	base := &Config{RequestTimeoutSecs: 10, DisabledTypes: []string{"player"}, DefaultWindows: []uint64{0}}
	overlay := &Config{DisabledTypes: []string{" player ", "names"}, DefaultWindows: []uint64{60}}

	result := Merge(base, overlay)
	if result.RequestTimeoutSecs != 10 {
		t.Errorf("RequestTimeoutSecs = %d, want 10", result.RequestTimeoutSecs)
	}
	if len(result.DisabledTypes) != 2 {
		t.Errorf("DisabledTypes = %v, want [player names]", result.DisabledTypes)
	}
	if len(result.DefaultWindows) != 1 || result.DefaultWindows[0] != 60 {
		t.Errorf("DefaultWindows = %v, want overlay [60]", result.DefaultWindows)
	}
}
