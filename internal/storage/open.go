package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the record store named by backend under root.
//
//   - file:   root/version_<id>.json
//   - badger: root/badger/
//   - sqlite: root/versions.db
//   - memory: root is ignored
func Open(backend, root string, opts ...Option) (RecordStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(root, opts...)
	case BackendBadger:
		if root == "" {
			return nil, fmt.Errorf("badger: root is required")
		}
		cfg := DefaultBadgerConfig(filepath.Join(root, "badger"))
		if t := buildOptions(opts).tuning; t != nil {
			cfg.SyncWrites = t.syncWrites
			cfg.GCInterval = t.gcInterval
		}
		return NewBadgerStore(cfg, opts...)
	case BackendSQLite:
		if root == "" {
			return nil, fmt.Errorf("sqlite: root is required")
		}
		return OpenSQLite(filepath.Join(root, "versions.db"), opts...)
	case BackendMemory:
		return NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
