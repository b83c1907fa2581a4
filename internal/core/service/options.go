package service

import (
	"io"
	"time"

	"github.com/yndnr/statevault/internal/core/diff"
	"github.com/yndnr/statevault/internal/core/integrity"
	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/internal/telemetry/metric"
)

// Option configures a VersionStore.
type Option func(*VersionStore)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *VersionStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for creation and rollback timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *VersionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithVerifier sets the integrity verifier (default SHA-256).
func WithVerifier(v *integrity.Verifier) Option {
	return func(s *VersionStore) {
		if v != nil {
			s.verifier = v
		}
	}
}

// WithMaxVersions bounds the history. Zero or less keeps everything.
func WithMaxVersions(n int) Option {
	return func(s *VersionStore) {
		s.retention.maxVersions = n
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *VersionStore) {
		s.metrics = m
	}
}

// WithDiffEngine replaces the diff engine.
func WithDiffEngine(e *diff.Engine) Option {
	return func(s *VersionStore) {
		if e != nil {
			s.differ = e
		}
	}
}

// WithEntropy sets the ULID entropy source used for version ids.
func WithEntropy(r io.Reader) Option {
	return func(s *VersionStore) {
		if r != nil {
			s.entropy = r
		}
	}
}
