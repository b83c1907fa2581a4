// Package metric provides Prometheus metrics for statevault.
//
//   - prometheus.go: counters and histograms updated by the store
//   - collector.go: scrape-time gauges read from a StatsSource
//
// Nothing registers itself globally; callers pass their own registry.
package metric
