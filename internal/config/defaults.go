package config

import "time"

// DefaultDatabaseName is the database opened when neither a path nor a name is configured.
const DefaultDatabaseName = "vektordb"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Name == "" {
		cfg.Storage.Name = DefaultDatabaseName
	}
	if cfg.Storage.Compression == "" {
		cfg.Storage.Compression = "none"
	}
	if cfg.Storage.PersistMode == "" {
		cfg.Storage.PersistMode = "best_effort"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 200 * time.Millisecond
	}
}
