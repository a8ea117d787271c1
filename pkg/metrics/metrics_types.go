package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the dashboard engine
type Registry struct {
	// Relay Metrics
	PollsTotal          *prometheus.CounterVec
	PollDuration        prometheus.Histogram
	PushEventsTotal     *prometheus.CounterVec
	PushResyncsTotal    prometheus.Counter
	ConnectionsOnline   prometheus.Gauge
	ConnectionsTotal    prometheus.Gauge
	SnapshotAgeSeconds  prometheus.Gauge

	// Link Store Metrics
	MutationsTotal        *prometheus.CounterVec
	MutationDuration      *prometheus.HistogramVec
	MutationRollbacks     *prometheus.CounterVec
	TogglesCoalescedTotal prometheus.Counter
	LinksTotal            prometheus.Gauge
	LinksEnabled          prometheus.Gauge

	// Graph Metrics
	GraphNodesTotal    prometheus.Gauge
	GraphEdgesTotal    prometheus.Gauge
	DanglingEdgesTotal prometheus.Counter
	RelayoutsTotal     *prometheus.CounterVec
	RebuildDuration    prometheus.Histogram

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initRelayMetrics()
	r.initStoreMetrics()
	r.initGraphMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
