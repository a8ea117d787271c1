package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordPoll records one liveness poll with its duration
func (r *Registry) RecordPoll(status string, duration time.Duration) {
	r.PollsTotal.WithLabelValues(status).Inc()
	r.PollDuration.Observe(duration.Seconds())
}

// RecordPushEvent records one push-channel event by type
func (r *Registry) RecordPushEvent(eventType string) {
	r.PushEventsTotal.WithLabelValues(eventType).Inc()
	if eventType == "resync" {
		r.PushResyncsTotal.Inc()
	}
}

// RecordMutation records a finished link store mutation
func (r *Registry) RecordMutation(op, state string, duration time.Duration) {
	r.MutationsTotal.WithLabelValues(op, state).Inc()
	r.MutationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if state == "rolled_back" {
		r.MutationRollbacks.WithLabelValues(op).Inc()
	}
}

// UpdateLinkCounts updates the store gauges
func (r *Registry) UpdateLinkCounts(total, enabled int) {
	r.LinksTotal.Set(float64(total))
	r.LinksEnabled.Set(float64(enabled))
}

// UpdateConnectionCounts updates the liveness snapshot gauges
func (r *Registry) UpdateConnectionCounts(total, online int) {
	r.ConnectionsTotal.Set(float64(total))
	r.ConnectionsOnline.Set(float64(online))
}

// UpdateGraphSize updates the graph model gauges
func (r *Registry) UpdateGraphSize(nodes, edges int) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
}

// RecordRelayout records one layout pass by policy
func (r *Registry) RecordRelayout(kind string) {
	r.RelayoutsTotal.WithLabelValues(kind).Inc()
}

// Handler returns the Prometheus exposition handler for this registry
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
