// Package migration brings snapshots written under an older schema up to the current one.
//
// A migration is made of at most three steps (major, minor, patch) applied in
// that order. A step runs only when the matching component of the source
// schema is behind the current schema. A step that was never registered is a
// configuration gap: the snapshot passes through unchanged and the gap is
// logged and counted.
package migration

import (
	"fmt"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/internal/telemetry/metric"
)

// Level identifies which schema component a step upgrades.
type Level string

const (
	LevelMajor Level = "major"
	LevelMinor Level = "minor"
	LevelPatch Level = "patch"
)

var levels = []Level{LevelMajor, LevelMinor, LevelPatch}

// Step is a pure snapshot transformation. It must not depend on global state.
type Step func(domain.Snapshot) (domain.Snapshot, error)

// Engine applies registered steps to reach the current schema.
type Engine struct {
	current SchemaVersion
	steps   map[Level]Step
	logger  logger.Logger
	metrics *metric.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMajorStep registers the major-version step.
func WithMajorStep(step Step) Option {
	return withStep(LevelMajor, step)
}

// WithMinorStep registers the minor-version step.
func WithMinorStep(step Step) Option {
	return withStep(LevelMinor, step)
}

// WithPatchStep registers the patch-version step.
func WithPatchStep(step Step) Option {
	return withStep(LevelPatch, step)
}

func withStep(level Level, step Step) Option {
	return func(e *Engine) {
		if step != nil {
			e.steps[level] = step
		}
	}
}

// WithLogger sets the logger used to report gaps.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metric.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an engine targeting the current schema.
func New(current string, opts ...Option) (*Engine, error) {
	cur, err := ParseSchemaVersion(current)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		current: cur,
		steps:   make(map[Level]Step, len(levels)),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Current returns the target schema.
func (e *Engine) Current() SchemaVersion {
	return e.current
}

// Migrate transforms s from fromSchema to the current schema.
//
// When fromSchema equals the current schema, s is returned as is. Otherwise
// the first step receives a copy of s, so the caller's snapshot is never
// modified.
func (e *Engine) Migrate(s domain.Snapshot, fromSchema string) (domain.Snapshot, error) {
	from, err := ParseSchemaVersion(fromSchema)
	if err != nil {
		return nil, err
	}
	if from == e.current {
		return s, nil
	}

	log := e.logger.With("from_schema", from.String(), "to_schema", e.current.String())
	if from.Compare(e.current) > 0 {
		log.Warn("snapshot schema is newer than current")
	}

	out := s.Clone()
	for _, level := range e.pending(from) {
		step, ok := e.steps[level]
		if !ok {
			log.Warn("migration gap, snapshot passed through",
				"level", string(level),
				"code", domain.ErrMigrationGap.Code,
			)
			e.metrics.MigrationStep(string(level), metric.ResultGap)
			continue
		}

		next, err := step(out)
		if err != nil {
			e.metrics.MigrationStep(string(level), metric.ResultFailed)
			return nil, domain.ErrMigrationFailed.
				WithDetails(fmt.Sprintf("%s step %s -> %s", level, from, e.current)).
				WithCause(err)
		}
		if next == nil {
			next = domain.Snapshot{}
		}
		out = next
		e.metrics.MigrationStep(string(level), metric.ResultApplied)
		log.Debug("migration step applied", "level", string(level))
	}
	return out, nil
}

// pending lists the levels whose component in from is behind current.
func (e *Engine) pending(from SchemaVersion) []Level {
	var out []Level
	if from.Major < e.current.Major {
		out = append(out, LevelMajor)
	}
	if from.Minor < e.current.Minor {
		out = append(out, LevelMinor)
	}
	if from.Patch < e.current.Patch {
		out = append(out, LevelPatch)
	}
	return out
}
