package config

import "time"

// Default configuration values.
const (
	DefaultRoot        = "./statevault-data"
	DefaultBackend     = "file"
	DefaultMaxVersions = 100
	DefaultHash        = "sha256"
	DefaultGCInterval  = 10 * time.Minute
	DefaultSchema      = "1.0.0"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			Root:        DefaultRoot,
			Backend:     DefaultBackend,
			MaxVersions: DefaultMaxVersions,
			Hash:        DefaultHash,
			GCInterval:  DefaultGCInterval,
		},
		Schema: SchemaSection{
			Current: DefaultSchema,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ToMap flattens cfg into dotted koanf keys, for seeding a loader with defaults.
func ToMap(cfg *Config) map[string]any {
	return map[string]any{
		"storage.root":            cfg.Storage.Root,
		"storage.backend":         cfg.Storage.Backend,
		"storage.max_versions":    cfg.Storage.MaxVersions,
		"storage.hash":            cfg.Storage.Hash,
		"storage.sync_writes":     cfg.Storage.SyncWrites,
		"storage.gc_interval":     cfg.Storage.GCInterval.String(),
		"schema.current":          cfg.Schema.Current,
		"security.encryption_key": cfg.Security.EncryptionKey,
		"security.passphrase":     cfg.Security.Passphrase,
		"security.salt":           cfg.Security.Salt,
		"security.algorithm":      cfg.Security.Algorithm,
		"log.level":               cfg.Log.Level,
		"log.format":              cfg.Log.Format,
	}
}
