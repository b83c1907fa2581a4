package storage

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/yndnr/statevault/pkg/cmap"
)

// MemoryStore keeps encoded records in memory. It is meant for tests and
// ephemeral stores; records are still encoded so the codec path is exercised.
type MemoryStore struct {
	records *cmap.Map[[]byte]
	codec   codec
	closed  atomic.Bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		records: cmap.New[[]byte](),
		codec:   codec{cipher: o.cipher},
	}
}

func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := s.check(rec.VersionID); err != nil {
		return err
	}
	data, err := s.codec.encode(rec)
	if err != nil {
		return err
	}
	if !s.records.SetIfAbsent(rec.VersionID, data) {
		return fmt.Errorf("%w: %s", ErrRecordExists, rec.VersionID)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}
	data, ok := s.records.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return s.codec.decode(id, data)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := s.check(id); err != nil {
		return err
	}
	if _, ok := s.records.Pop(id); !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	ids := s.records.Keys()
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	return s.records.Count()
}

func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *MemoryStore) check(id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkID(id)
}
