package config

import (
	"fmt"
	"time"

	"github.com/yndnr/statevault/pkg/crypto/adaptive"
)

// Config is the root configuration.
//
// Keys are at most two levels deep so that environment variables map onto
// them unambiguously: STATEVAULT_STORAGE_MAX_VERSIONS -> storage.max_versions.
type Config struct {
	Storage  StorageSection  `koanf:"storage"`
	Schema   SchemaSection   `koanf:"schema"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// StorageSection configures where and how versions are persisted.
type StorageSection struct {
	// Root is the storage root directory.
	Root string `koanf:"root"`

	// Backend selects the record store: file, badger, sqlite or memory.
	Backend string `koanf:"backend"`

	// MaxVersions bounds the history. 0 disables retention.
	MaxVersions int `koanf:"max_versions"`

	// Hash is the checksum algorithm for new versions: sha256 or blake3.
	Hash string `koanf:"hash"`

	// SyncWrites makes the badger backend fsync every commit.
	SyncWrites bool `koanf:"sync_writes"`

	// GCInterval is the badger value log GC period. 0 disables the loop.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SchemaSection configures snapshot schema migration.
type SchemaSection struct {
	// Current is the semantic version snapshots are migrated to.
	Current string `koanf:"current"`
}

// SecuritySection configures record encryption at rest.
type SecuritySection struct {
	// EncryptionKey is a hex or base64 encoded raw key.
	EncryptionKey string `koanf:"encryption_key"`

	// Passphrase derives the key with Argon2id when EncryptionKey is empty.
	Passphrase string `koanf:"passphrase"`

	// Salt is the hex or base64 encoded Argon2id salt.
	Salt string `koanf:"salt"`

	// Algorithm is aes-gcm or chacha20-poly1305. Empty picks by CPU support.
	Algorithm string `koanf:"algorithm"`
}

// Encrypted reports whether record encryption is configured.
func (s SecuritySection) Encrypted() bool {
	return s.EncryptionKey != "" || s.Passphrase != ""
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// KeyConfig decodes the security section into key material for record
// encryption. purpose separates keys derived from the same secret.
func (s SecuritySection) KeyConfig(purpose string) (adaptive.KeyConfig, error) {
	key, err := adaptive.DecodeKey(s.EncryptionKey)
	if err != nil {
		return adaptive.KeyConfig{}, fmt.Errorf("security.encryption_key: %w", err)
	}
	salt, err := adaptive.DecodeKey(s.Salt)
	if err != nil {
		return adaptive.KeyConfig{}, fmt.Errorf("security.salt: %w", err)
	}
	kc := adaptive.KeyConfig{
		Key:       key,
		Salt:      salt,
		Algorithm: s.Algorithm,
		Purpose:   purpose,
	}
	if s.Passphrase != "" {
		kc.Passphrase = []byte(s.Passphrase)
	}
	return kc, nil
}
