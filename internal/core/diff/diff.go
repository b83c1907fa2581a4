// Package diff computes top-level differences between version snapshots.
//
// The comparison is one level deep: a nested mapping that changed internally
// is reported as a single modified key carrying the whole old and new value.
package diff

import (
	"sort"
	"time"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/core/integrity"
)

// Engine computes StateDiffs.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a diff engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Diff compares from.Snapshot with to.Snapshot.
func (e *Engine) Diff(from, to *domain.Version) *domain.StateDiff {
	d := e.Snapshots(from.Snapshot(), to.Snapshot())
	d.FromID = from.ID
	d.ToID = to.ID
	return d
}

// Snapshots compares two raw snapshots. Version IDs are left empty.
func (e *Engine) Snapshots(from, to domain.Snapshot) *domain.StateDiff {
	d := &domain.StateDiff{
		Added:      make(map[string]any),
		Modified:   make(map[string]domain.ValueChange),
		Removed:    []string{},
		ComputedAt: e.now().UTC(),
	}

	for key, newValue := range to {
		oldValue, ok := from[key]
		if !ok {
			d.Added[key] = domain.CloneValue(newValue)
			continue
		}
		if !integrity.Equal(oldValue, newValue) {
			d.Modified[key] = domain.ValueChange{
				From: domain.CloneValue(oldValue),
				To:   domain.CloneValue(newValue),
			}
		}
	}

	for key := range from {
		if _, ok := to[key]; !ok {
			d.Removed = append(d.Removed, key)
		}
	}
	sort.Strings(d.Removed)

	return d
}
