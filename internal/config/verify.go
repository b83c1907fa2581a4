package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/statevault/internal/core/integrity"
	"github.com/yndnr/statevault/internal/core/migration"
	"github.com/yndnr/statevault/internal/storage"
	"github.com/yndnr/statevault/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if _, err := migration.ParseSchemaVersion(cfg.Schema.Current); err != nil {
		return fmt.Errorf("schema.current: %w", err)
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case "", storage.BackendFile, storage.BackendBadger, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", cfg.Backend)
	}

	if cfg.Backend != storage.BackendMemory {
		if cfg.Root == "" {
			return errors.New("storage.root is required")
		}
		if err := os.MkdirAll(cfg.Root, 0750); err != nil {
			return errors.New("cannot create storage root: " + err.Error())
		}
	}

	if cfg.MaxVersions < 0 {
		return errors.New("storage.max_versions must not be negative")
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	if _, err := integrity.ParseAlgorithm(cfg.Hash); err != nil {
		return fmt.Errorf("storage.hash: %w", err)
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if _, err := adaptive.ParseCipherType(cfg.Algorithm); err != nil {
		return fmt.Errorf("security.algorithm: %w", err)
	}
	if cfg.EncryptionKey != "" && cfg.Passphrase != "" {
		return errors.New("security.encryption_key and security.passphrase are mutually exclusive")
	}
	if cfg.Passphrase != "" && cfg.Salt == "" {
		return errors.New("security.salt is required with security.passphrase")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
