package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRelayMetrics() {
	r.PollsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copier_liveness_polls_total",
			Help: "Connection liveness polls by outcome",
		},
		[]string{"status"}, // ok, error
	)

	r.PollDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copier_liveness_poll_duration_seconds",
			Help:    "Duration of connection liveness polls",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.PushEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copier_push_events_total",
			Help: "Push channel events by type",
		},
		[]string{"type"}, // created, updated, deleted, resync
	)

	r.PushResyncsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "copier_push_resyncs_total",
			Help: "Full refetches triggered by unparseable push events",
		},
	)

	r.ConnectionsOnline = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_connections_online",
			Help: "Accounts currently reported online",
		},
	)

	r.ConnectionsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_connections_total",
			Help: "Accounts in the last liveness snapshot",
		},
	)

	r.SnapshotAgeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_liveness_snapshot_age_seconds",
			Help: "Age of the last successfully fetched liveness snapshot",
		},
	)
}
