package storage

import (
	"time"

	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/pkg/crypto/adaptive"
)

type options struct {
	cipher adaptive.Cipher
	logger logger.Logger
	tuning *badgerTuning
}

type badgerTuning struct {
	syncWrites bool
	gcInterval time.Duration
}

// Option configures a record store.
type Option func(*options)

// WithCipher seals records at rest.
func WithCipher(c adaptive.Cipher) Option {
	return func(o *options) {
		o.cipher = c
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBadgerTuning overrides the sync and GC settings Open uses for the
// badger backend. Other backends ignore it.
func WithBadgerTuning(syncWrites bool, gcInterval time.Duration) Option {
	return func(o *options) {
		o.tuning = &badgerTuning{syncWrites: syncWrites, gcInterval: gcInterval}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
