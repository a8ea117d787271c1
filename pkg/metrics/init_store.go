package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copier_link_mutations_total",
			Help: "Link store mutations by operation and final state",
		},
		[]string{"op", "state"}, // op: create, update, delete, toggle; state: confirmed, rolled_back
	)

	r.MutationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copier_link_mutation_duration_seconds",
			Help:    "Duration of link store mutations including the remote call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	r.MutationRollbacks = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copier_link_rollbacks_total",
			Help: "Optimistic mutations rolled back after a remote failure",
		},
		[]string{"op"},
	)

	r.TogglesCoalescedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "copier_toggles_coalesced_total",
			Help: "Toggle intents absorbed by debounce coalescing without a network call",
		},
	)

	r.LinksTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_links_total",
			Help: "Copy links currently held by the store",
		},
	)

	r.LinksEnabled = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_links_enabled",
			Help: "Copy links currently enabled",
		},
	)
}
