package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_graph_nodes_total",
			Help: "Nodes in the current graph model",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "copier_graph_edges_total",
			Help: "Edges in the current graph model",
		},
	)

	r.DanglingEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "copier_graph_dangling_edges_total",
			Help: "Edges dropped because an endpoint node was absent",
		},
	)

	r.RelayoutsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "copier_relayouts_total",
			Help: "Layout passes by policy",
		},
		[]string{"kind"}, // full, preserve, data_only
	)

	r.RebuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copier_rebuild_duration_seconds",
			Help:    "Duration of a full view-model and graph rebuild",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)
}
