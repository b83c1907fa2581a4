// Package metric provides Prometheus metrics for statevault.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "statevault"

// Migration step outcomes used as the "result" label.
const (
	ResultApplied = "applied"
	ResultGap     = "gap"
	ResultFailed  = "failed"
)

// Metrics holds the version store metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	VersionsCreated        prometheus.Counter
	VersionsEvicted        prometheus.Counter
	EvictionDeleteFailures prometheus.Counter
	IntegrityFailures      prometheus.Counter
	Rollbacks              prometheus.Counter
	MigrationSteps         *prometheus.CounterVec
	CreateDuration         prometheus.Histogram
}

// New creates the metrics and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VersionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "versions_created_total",
			Help:      "Total number of versions created, rollbacks included",
		}),
		VersionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "versions_evicted_total",
			Help:      "Total number of versions evicted by the retention policy",
		}),
		EvictionDeleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "delete_failures_total",
			Help:      "Durable deletes that failed during eviction for reasons other than absence",
		}),
		IntegrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "integrity_failures_total",
			Help:      "Loaded records whose recomputed checksum did not match",
		}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rollbacks_total",
			Help:      "Total number of rollbacks performed",
		}),
		MigrationSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "migration",
			Name:      "steps_total",
			Help:      "Schema migration steps by level and result",
		}, []string{"level", "result"}),
		CreateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "create_duration_seconds",
			Help:      "Duration of version creation including persistence and retention",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.VersionsCreated,
			m.VersionsEvicted,
			m.EvictionDeleteFailures,
			m.IntegrityFailures,
			m.Rollbacks,
			m.MigrationSteps,
			m.CreateDuration,
		)
	}
	return m
}

// VersionCreated records a successful creation and its duration.
func (m *Metrics) VersionCreated(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.VersionsCreated.Inc()
	m.CreateDuration.Observe(elapsed.Seconds())
}

// VersionEvicted records one eviction.
func (m *Metrics) VersionEvicted() {
	if m == nil {
		return
	}
	m.VersionsEvicted.Inc()
}

// EvictionDeleteFailed records a durable delete failure during eviction.
func (m *Metrics) EvictionDeleteFailed() {
	if m == nil {
		return
	}
	m.EvictionDeleteFailures.Inc()
}

// IntegrityFailure records a rejected record.
func (m *Metrics) IntegrityFailure() {
	if m == nil {
		return
	}
	m.IntegrityFailures.Inc()
}

// RolledBack records a rollback.
func (m *Metrics) RolledBack() {
	if m == nil {
		return
	}
	m.Rollbacks.Inc()
}

// MigrationStep records a migration step outcome.
func (m *Metrics) MigrationStep(level, result string) {
	if m == nil {
		return
	}
	m.MigrationSteps.WithLabelValues(level, result).Inc()
}
