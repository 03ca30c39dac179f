// Package config provides configuration loading and structs for the Merkon CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MERKON_STORAGE_PATH.
const EnvPrefix = "MERKON"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the backing file and how it is written.
type StorageConfig struct {
	// Path is the snapshot file. When empty the file is Name in the user config dir.
	Path        string `yaml:"path"`
	Name        string `yaml:"name"`
	Compression string `yaml:"compression"`
	PersistMode string `yaml:"persist_mode" split_words:"true"`
	Lock        *bool  `yaml:"lock"`
}

// LockOrDefault returns whether to take the advisory file lock; defaults to true when unset.
func (s *StorageConfig) LockOrDefault() bool {
	if s.Lock != nil {
		return *s.Lock
	}
	return true
}

// EmbeddingConfig holds settings for the text embedder used by remember/recall.
type EmbeddingConfig struct {
	Dimensions int `yaml:"dimensions"`
	CacheSize  int `yaml:"cache_size" split_words:"true"`
}

// SearchConfig holds nearest-match defaults.
type SearchConfig struct {
	DefaultLimit int     `yaml:"default_limit" split_words:"true"`
	MaxLimit     int     `yaml:"max_limit" split_words:"true"`
	MinScore     float64 `yaml:"min_score" split_words:"true"`
}

// WatchConfig holds follow mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads and parses the config file at path, applies MERKON_* environment
// overrides and defaults, and expands paths. An empty path skips the file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	ApplyDefaults(&cfg)

	if cfg.Storage.Path != "" {
		cfg.Storage.Path = expandPath(cfg.Storage.Path, configDir)
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
