package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/storage"
	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/internal/telemetry/metric"
)

// RetentionPolicy bounds how many versions a store keeps.
type RetentionPolicy struct {
	maxVersions int
	logger      logger.Logger
	metrics     *metric.Metrics
}

// MaxVersions returns the bound. Zero means unbounded.
func (p *RetentionPolicy) MaxVersions() int {
	if p.maxVersions < 0 {
		return 0
	}
	return p.maxVersions
}

// Apply evicts the oldest versions of s until the history fits the bound.
//
// Each evicted version leaves the index and the history first; its durable
// record is deleted afterwards. A record that is already gone counts as
// deleted. Other delete failures do not stop the sweep; they are joined and
// returned as ErrStorageIO once the history fits. The orphaned records are
// picked up again by the next Recover. The current version is never evicted.
func (p *RetentionPolicy) Apply(ctx context.Context, s *VersionStore) ([]string, error) {
	max := p.MaxVersions()
	if max == 0 {
		return nil, nil
	}

	log := logger.L(ctx, p.logger)
	var (
		evicted []string
		failed  []string
		errs    []error
	)
	for {
		id, ok := p.popOldest(s, max)
		if !ok {
			break
		}
		evicted = append(evicted, id)
		p.metrics.VersionEvicted()

		err := s.backend.Delete(ctx, id)
		switch {
		case err == nil:
			log.Debug("version evicted", "version_id", id)
		case errors.Is(err, storage.ErrRecordNotFound):
			log.Debug("evicted version had no durable record", "version_id", id)
		default:
			p.metrics.EvictionDeleteFailed()
			log.Error("delete evicted record failed", "version_id", id, "error", err)
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	if len(errs) > 0 {
		return evicted, domain.ErrStorageIO.
			WithDetails("evict " + strings.Join(failed, ", ")).
			WithCause(errors.Join(errs...))
	}
	return evicted, nil
}

// popOldest removes the oldest history entry when the history exceeds max.
func (p *RetentionPolicy) popOldest(s *VersionStore, max int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) <= max {
		return "", false
	}
	oldest := s.history[0].VersionID
	if s.current != nil && s.current.ID == oldest {
		return "", false
	}

	s.history = append(s.history[:0:0], s.history[1:]...)
	delete(s.index, oldest)
	return oldest, true
}
