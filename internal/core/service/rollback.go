package service

import (
	"context"
	"time"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/telemetry/logger"
)

// RollbackManager restores prior content without destroying history.
type RollbackManager struct {
	store *VersionStore
}

// RollbackToVersion creates a new version carrying the snapshot of targetID.
//
// The target is resolved through the store (memory, then the durable record
// with integrity verification). Nothing is deleted or rewritten: the target
// and every version after it stay in history, subject to normal retention.
func (m *RollbackManager) RollbackToVersion(ctx context.Context, targetID string) (*domain.Version, error) {
	s := m.store
	target, err := s.LoadVersion(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var from any
	if cur := s.CurrentVersion(); cur != nil {
		from = cur.ID
	}
	meta := map[string]any{
		domain.MetaRollbackFrom:      from,
		domain.MetaRollbackTarget:    target.ID,
		domain.MetaRollbackTimestamp: s.now().UTC().Format(time.RFC3339Nano),
	}

	v, err := s.CreateVersion(ctx, target.Snapshot(), meta)
	if v == nil {
		return nil, err
	}

	s.metrics.RolledBack()
	logger.L(ctx, s.logger).Info("rolled back",
		"target_id", target.ID,
		"from_id", from,
		"version_id", v.ID,
	)
	return v, err
}
