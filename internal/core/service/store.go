package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/statevault/internal/core/diff"
	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/core/integrity"
	"github.com/yndnr/statevault/internal/storage"
	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/internal/telemetry/metric"
)

// VersionStore is the single source of truth for the version history and
// the current-version pointer.
//
// Mutating calls (CreateVersion, RollbackToVersion, Recover) must be
// serialized by the caller. The in-memory index is guarded so reads may run
// concurrently with each other.
type VersionStore struct {
	backend   storage.RecordStore
	verifier  *integrity.Verifier
	differ    *diff.Engine
	retention *RetentionPolicy
	rollback  *RollbackManager
	logger    logger.Logger
	metrics   *metric.Metrics
	now       func() time.Time
	entropy   io.Reader

	mu      sync.RWMutex
	index   map[string]*domain.Version
	history []domain.HistoryEntry // oldest first
	current *domain.Version
}

// NewVersionStore creates an empty store over backend. Use Recover (or
// OpenVersionStore) to rebuild state from records already in the backend.
func NewVersionStore(backend storage.RecordStore, opts ...Option) *VersionStore {
	s := &VersionStore{
		backend:   backend,
		verifier:  integrity.Default(),
		retention: &RetentionPolicy{},
		logger:    logger.Nop(),
		now:       time.Now,
		entropy:   domain.NewEntropy(),
		index:     make(map[string]*domain.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.differ == nil {
		s.differ = diff.NewEngine(diff.WithClock(s.now))
	}
	s.logger = s.logger.With("component", "version_store")
	s.retention.logger = s.logger
	s.retention.metrics = s.metrics
	s.rollback = &RollbackManager{store: s}
	return s
}

// OpenVersionStore creates a store and recovers its state from backend.
func OpenVersionStore(ctx context.Context, backend storage.RecordStore, opts ...Option) (*VersionStore, error) {
	s := NewVersionStore(backend, opts...)
	if _, err := s.Recover(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Retention returns the retention policy.
func (s *VersionStore) Retention() *RetentionPolicy {
	return s.retention
}

// Rollbacks returns the rollback manager.
func (s *VersionStore) Rollbacks() *RollbackManager {
	return s.rollback
}

// Verifier returns the integrity verifier in use.
func (s *VersionStore) Verifier() *integrity.Verifier {
	return s.verifier
}

// CreateVersion captures snapshot as a new current version.
//
// The snapshot is copied into the JSON value model, checksummed and persisted
// before the current pointer moves, so a persist failure leaves the store
// unchanged. Retention runs afterwards; if evicting an old record fails for a
// reason other than it already being gone, the new version is returned
// together with an ErrStorageIO error.
func (s *VersionStore) CreateVersion(ctx context.Context, snapshot map[string]any, metadata map[string]any) (*domain.Version, error) {
	started := time.Now()
	log := logger.L(ctx, s.logger)

	norm, err := s.verifier.Normalize(snapshot)
	if err != nil {
		return nil, err
	}
	meta, err := integrity.Normalize(metadata)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("metadata").WithCause(err)
	}
	sum, err := s.verifier.Checksum(norm)
	if err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	id, err := domain.NewVersionID(createdAt, sum, s.entropy)
	if err != nil {
		return nil, err
	}

	var parentID string
	if cur := s.CurrentVersion(); cur != nil {
		parentID = cur.ID
	}
	v := domain.NewVersion(id, createdAt, parentID, norm, meta, sum)

	rec := storage.RecordFromVersion(v, string(s.verifier.Algorithm()))
	if err := s.backend.Put(ctx, rec); err != nil {
		log.Error("persist version failed", "version_id", id, "error", err)
		return nil, domain.ErrStorageIO.WithDetails("persist " + id).WithCause(err)
	}

	s.mu.Lock()
	s.index[id] = v
	s.history = append(s.history, domain.HistoryEntry{VersionID: id, CreatedAt: createdAt})
	s.current = v
	s.mu.Unlock()

	log.Debug("version created", "version_id", id, "parent_id", parentID, "keys", len(norm))

	_, evictErr := s.retention.Apply(ctx, s)
	s.metrics.VersionCreated(time.Since(started))
	if evictErr != nil {
		return v, evictErr
	}
	return v, nil
}

// LoadVersion resolves id from memory, falling back to the durable record.
//
// A durable record is admitted only if its recomputed checksum matches the
// stored one; otherwise ErrIntegrityViolation is returned and nothing is cached.
// Verified records outside the history are returned without being cached.
func (s *VersionStore) LoadVersion(ctx context.Context, id string) (*domain.Version, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("version id")
	}

	s.mu.RLock()
	v, ok := s.index[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	if !domain.IsValidVersionID(id) {
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("malformed version id %q", id))
	}

	v, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if cached, ok := s.index[id]; ok {
		v = cached
	} else if s.inHistory(id) {
		s.index[id] = v
	}
	s.mu.Unlock()
	return v, nil
}

// inHistory reports whether id is a history entry. Only those are cached,
// since retention evicts through the history. Callers hold s.mu.
func (s *VersionStore) inHistory(id string) bool {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].VersionID == id {
			return true
		}
	}
	return false
}

// read loads and verifies a durable record without touching the index.
func (s *VersionStore) read(ctx context.Context, id string) (*domain.Version, error) {
	rec, err := s.backend.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrRecordNotFound):
			return nil, domain.ErrVersionNotFound.WithDetails(id)
		case errors.Is(err, storage.ErrInvalidID):
			return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("malformed version id %q", id)).WithCause(err)
		case errors.Is(err, storage.ErrCorruptRecord):
			s.integrityFailure(ctx, id, err)
			return nil, domain.ErrIntegrityViolation.WithDetails(id).WithCause(err)
		default:
			return nil, domain.ErrStorageIO.WithDetails("read " + id).WithCause(err)
		}
	}

	if err := s.verifyRecord(rec); err != nil {
		s.integrityFailure(ctx, id, err)
		return nil, err
	}
	return rec.Version(), nil
}

func (s *VersionStore) verifyRecord(rec *storage.Record) error {
	verifier := s.verifier
	if rec.HashAlgorithm != "" && rec.HashAlgorithm != string(verifier.Algorithm()) {
		v, err := integrity.New(rec.HashAlgorithm)
		if err != nil {
			return domain.ErrIntegrityViolation.WithDetails(rec.VersionID).WithCause(err)
		}
		verifier = v
	}

	if err := verifier.Verify(rec.Snapshot, rec.Checksum); err != nil {
		if errors.Is(err, domain.ErrIntegrityViolation) {
			return err
		}
		return domain.ErrIntegrityViolation.WithDetails(rec.VersionID).WithCause(err)
	}

	// The id carries a checksum fragment; a record whose checksum was
	// rewritten together with its snapshot still fails here.
	if domain.IsValidVersionID(rec.VersionID) {
		fragment := rec.VersionID[len(rec.VersionID)-domain.ChecksumFragmentLen:]
		if len(rec.Checksum) < domain.ChecksumFragmentLen || fragment != rec.Checksum[:domain.ChecksumFragmentLen] {
			return domain.ErrIntegrityViolation.WithDetails(rec.VersionID + ": id does not match checksum")
		}
	}
	return nil
}

func (s *VersionStore) integrityFailure(ctx context.Context, id string, err error) {
	logger.L(ctx, s.logger).Warn("integrity check failed, record rejected", "version_id", id, "error", err)
	s.metrics.IntegrityFailure()
}

// GetVersionHistory returns history entries newest first. limit <= 0 returns all.
func (s *VersionStore) GetVersionHistory(limit int) []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.HistoryEntry, 0, n)
	for i := len(s.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// GetVersionDiff computes the top-level diff between two versions.
func (s *VersionStore) GetVersionDiff(ctx context.Context, fromID, toID string) (*domain.StateDiff, error) {
	from, err := s.LoadVersion(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.LoadVersion(ctx, toID)
	if err != nil {
		return nil, err
	}
	return s.differ.Diff(from, to), nil
}

// RollbackToVersion restores the snapshot of id as a new current version.
func (s *VersionStore) RollbackToVersion(ctx context.Context, id string) (*domain.Version, error) {
	return s.rollback.RollbackToVersion(ctx, id)
}

// CurrentVersion returns the current version, or nil for an empty store.
func (s *VersionStore) CurrentVersion() *domain.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Recover rebuilds the index, history and current pointer from the backend.
//
// Every record is verified; corrupt records and unusable ids are logged and
// skipped. The
// retention bound is applied to the recovered history. It returns the number
// of versions admitted.
func (s *VersionStore) Recover(ctx context.Context) (int, error) {
	log := logger.L(ctx, s.logger)

	ids, err := s.backend.List(ctx)
	if err != nil {
		return 0, domain.ErrStorageIO.WithDetails("list records").WithCause(err)
	}

	versions := make([]*domain.Version, 0, len(ids))
	for _, id := range ids {
		v, err := s.read(ctx, id)
		switch {
		case err == nil:
			versions = append(versions, v)
		case errors.Is(err, domain.ErrIntegrityViolation), errors.Is(err, domain.ErrVersionNotFound),
			errors.Is(err, domain.ErrInvalidArgument):
			log.Warn("skipping record during recovery", "version_id", id, "error", err)
		default:
			return 0, err
		}
	}

	sort.SliceStable(versions, func(i, j int) bool {
		if !versions[i].CreatedAt.Equal(versions[j].CreatedAt) {
			return versions[i].CreatedAt.Before(versions[j].CreatedAt)
		}
		return versions[i].ID < versions[j].ID
	})

	index := make(map[string]*domain.Version, len(versions))
	history := make([]domain.HistoryEntry, 0, len(versions))
	for _, v := range versions {
		index[v.ID] = v
		history = append(history, domain.HistoryEntry{VersionID: v.ID, CreatedAt: v.CreatedAt})
	}

	s.mu.Lock()
	s.index = index
	s.history = history
	s.current = nil
	if len(versions) > 0 {
		s.current = versions[len(versions)-1]
	}
	s.mu.Unlock()

	log.Info("version store recovered", "versions", len(versions), "skipped", len(ids)-len(versions))

	if _, err := s.retention.Apply(ctx, s); err != nil {
		return len(versions), err
	}
	return len(versions), nil
}

// Stats implements metric.StatsSource.
func (s *VersionStore) Stats() metric.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := metric.Stats{
		HistoryLength:   len(s.history),
		IndexedVersions: len(s.index),
		MaxVersions:     s.retention.MaxVersions(),
	}
	if s.current != nil {
		st.CurrentCreatedAt = s.current.CreatedAt
	}
	return st
}

// Close closes the backend.
func (s *VersionStore) Close() error {
	return s.backend.Close()
}
