package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a point-in-time view of a version store.
type Stats struct {
	HistoryLength    int
	IndexedVersions  int
	MaxVersions      int
	CurrentCreatedAt time.Time
}

// StatsSource provides store statistics on demand.
type StatsSource interface {
	Stats() Stats
}

// Collector exposes StatsSource values as gauges at scrape time.
type Collector struct {
	source StatsSource
	now    func() time.Time

	historyLength *prometheus.Desc
	indexed       *prometheus.Desc
	maxVersions   *prometheus.Desc
	currentAge    *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		now:    time.Now,
		historyLength: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "history_length"),
			"Number of version ids in the history", nil, nil),
		indexed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "indexed_versions"),
			"Number of versions held in the in-memory index", nil, nil),
		maxVersions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "retention", "max_versions"),
			"Configured retention bound, 0 when unbounded", nil, nil),
		currentAge: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "current_version_age_seconds"),
			"Age of the current version, 0 when the store is empty", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.historyLength
	ch <- c.indexed
	ch <- c.maxVersions
	ch <- c.currentAge
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	var age float64
	if !s.CurrentCreatedAt.IsZero() {
		age = c.now().Sub(s.CurrentCreatedAt).Seconds()
	}

	ch <- prometheus.MustNewConstMetric(c.historyLength, prometheus.GaugeValue, float64(s.HistoryLength))
	ch <- prometheus.MustNewConstMetric(c.indexed, prometheus.GaugeValue, float64(s.IndexedVersions))
	ch <- prometheus.MustNewConstMetric(c.maxVersions, prometheus.GaugeValue, float64(s.MaxVersions))
	ch <- prometheus.MustNewConstMetric(c.currentAge, prometheus.GaugeValue, age)
}
