package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  path: "/var/lib/merkon/test.bin"
  compression: zstd
  persist_mode: strict
  lock: false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %s", cfg.Server.Addr())
	}
	if cfg.Storage.Path != "/var/lib/merkon/test.bin" {
		t.Errorf("path = %s", cfg.Storage.Path)
	}
	if cfg.Storage.Compression != "zstd" || cfg.Storage.PersistMode != "strict" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Storage.LockOrDefault() {
		t.Error("lock should be false when set to false")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  path: "./data/vectors.bin"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "data", "vectors.bin")
	if cfg.Storage.Path != want {
		t.Errorf("path = %s, want %s", cfg.Storage.Path, want)
	}
}

func TestLoad_environmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
search:
  default_limit: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MERKON_SERVER_PORT", "9100")
	t.Setenv("MERKON_STORAGE_PERSIST_MODE", "strict")
	t.Setenv("MERKON_STORAGE_LOCK", "false")
	t.Setenv("MERKON_SEARCH_MIN_SCORE", "0.25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("default_limit = %d, want 5 from file", cfg.Search.DefaultLimit)
	}
	if cfg.Storage.PersistMode != "strict" {
		t.Errorf("persist_mode = %s", cfg.Storage.PersistMode)
	}
	if cfg.Storage.LockOrDefault() {
		t.Error("lock should be disabled by environment")
	}
	if cfg.Search.MinScore != 0.25 {
		t.Errorf("min_score = %v", cfg.Search.MinScore)
	}
}

func TestLoad_noFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Name != DefaultDatabaseName {
		t.Errorf("name = %s", cfg.Storage.Name)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("default limits: got %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Storage.Compression != "none" || cfg.Storage.PersistMode != "best_effort" {
		t.Errorf("storage defaults: got %+v", cfg.Storage)
	}
	if cfg.Embedding.Dimensions != 256 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("default debounce: got %v", cfg.Watch.Debounce)
	}
}

func TestStorageConfig_LockOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		s := &StorageConfig{}
		if got := s.LockOrDefault(); !got {
			t.Errorf("LockOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		s := &StorageConfig{Lock: &f}
		if got := s.LockOrDefault(); got {
			t.Errorf("LockOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{Path: "/tmp/db.bin"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.Path != "/tmp/db.bin" {
		t.Errorf("loaded path: got %s", loaded.Storage.Path)
	}
}
