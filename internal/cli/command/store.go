package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/core/integrity"
	"github.com/yndnr/statevault/internal/core/service"
	"github.com/yndnr/statevault/internal/storage"
	"github.com/yndnr/statevault/pkg/crypto/adaptive"
)

// recordKeyPurpose separates the record encryption key from any other key
// derived from the same configured secret.
const recordKeyPurpose = "statevault/records/v1"

// openBackend opens the configured record store.
func openBackend(e *env) (storage.RecordStore, error) {
	kc, err := e.cfg.Security.KeyConfig(recordKeyPurpose)
	if err != nil {
		return nil, err
	}
	cipher, err := adaptive.FromConfig(kc)
	adaptive.Zero(kc.Key)
	adaptive.Zero(kc.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("record encryption: %w", err)
	}

	opts := []storage.Option{
		storage.WithLogger(e.log),
		storage.WithBadgerTuning(e.cfg.Storage.SyncWrites, e.cfg.Storage.GCInterval),
	}
	if cipher != nil {
		opts = append(opts, storage.WithCipher(cipher))
	}

	backend, err := storage.Open(e.cfg.Storage.Backend, e.cfg.Storage.Root, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", e.cfg.Storage.Backend, err)
	}
	if bs, ok := backend.(*storage.BadgerStore); ok {
		bs.RegisterMetrics(e.registry)
	}
	return backend, nil
}

// storeOptions builds the version store options from configuration.
func storeOptions(e *env) ([]service.Option, error) {
	verifier, err := integrity.New(e.cfg.Storage.Hash)
	if err != nil {
		return nil, err
	}
	return []service.Option{
		service.WithLogger(e.log),
		service.WithVerifier(verifier),
		service.WithMaxVersions(e.cfg.Storage.MaxVersions),
		service.WithMetrics(e.metrics),
	}, nil
}

// openStore opens the configured store and recovers its history.
func openStore(c *cli.Context) (*service.VersionStore, error) {
	e := getEnv(c)
	opts, err := storeOptions(e)
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(e)
	if err != nil {
		return nil, err
	}
	s, err := service.OpenVersionStore(c.Context, backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}
