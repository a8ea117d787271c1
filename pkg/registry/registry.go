// Package registry polls the relay for per-account liveness and holds
// the latest snapshot. Polling runs on its own timeline: a failed poll
// keeps the previous snapshot and never touches the link store.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poruru210/sankey-copier-sub002/pkg/metrics"
	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

// DefaultPollInterval is the liveness polling cadence.
const DefaultPollInterval = 5 * time.Second

// ConnectionSource is the slice of the relay client the registry uses.
type ConnectionSource interface {
	GetConnections(ctx context.Context) ([]relay.Connection, error)
}

// Options tunes registry behavior.
type Options struct {
	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
	// HeartbeatStaleAfter, when positive, logs a warning for accounts
	// whose last heartbeat is older than the bound. Purely diagnostic;
	// the snapshot itself is never modified.
	HeartbeatStaleAfter time.Duration
}

// Registry is the poller plus its last-known snapshot.
type Registry struct {
	source  ConnectionSource
	bus     *pubsub.Bus
	logger  *slog.Logger
	metrics *metrics.Registry
	opts    Options

	mu       sync.RWMutex
	conns    map[string]relay.Connection
	lastSync time.Time
}

// New creates a registry with an empty snapshot.
func New(source ConnectionSource, bus *pubsub.Bus, logger *slog.Logger, opts Options) *Registry {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Registry{
		source:  source,
		bus:     bus,
		logger:  logger,
		metrics: metrics.DefaultRegistry(),
		opts:    opts,
		conns:   make(map[string]relay.Connection),
	}
}

// Run polls immediately and then on the fixed interval until ctx is
// cancelled.
func (r *Registry) Run(ctx context.Context) {
	r.poll(ctx)

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

// Snapshot returns a copy of the last-known connection map keyed by
// account id. May be stale if recent polls failed; never empty-on-error.
func (r *Registry) Snapshot() map[string]relay.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]relay.Connection, len(r.conns))
	for id, c := range r.conns {
		out[id] = c
	}
	return out
}

// LastSync returns when the snapshot was last refreshed successfully.
func (r *Registry) LastSync() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSync
}

// Fresh reports whether the snapshot is younger than two poll intervals.
func (r *Registry) Fresh() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.lastSync.IsZero() && time.Since(r.lastSync) < 2*r.opts.PollInterval
}

func (r *Registry) poll(ctx context.Context) {
	start := time.Now()
	conns, err := r.source.GetConnections(ctx)
	if err != nil {
		// Retain the last known snapshot: stale-but-available beats
		// forcing every account offline.
		r.metrics.RecordPoll("error", time.Since(start))
		r.logger.Warn("liveness poll failed, keeping last snapshot", "error", err)
		return
	}
	r.metrics.RecordPoll("ok", time.Since(start))

	snapshot := make(map[string]relay.Connection, len(conns))
	online := 0
	for _, c := range conns {
		snapshot[c.AccountID] = c
		if c.Online {
			online++
		}
		if r.opts.HeartbeatStaleAfter > 0 && c.Online &&
			!c.LastHeartbeat.IsZero() && time.Since(c.LastHeartbeat) > r.opts.HeartbeatStaleAfter {
			r.logger.Warn("account heartbeat is stale",
				"account", c.AccountID,
				"last_heartbeat", c.LastHeartbeat,
			)
		}
	}

	r.mu.Lock()
	r.conns = snapshot
	r.lastSync = time.Now()
	r.mu.Unlock()

	r.metrics.UpdateConnectionCounts(len(snapshot), online)
	r.metrics.SnapshotAgeSeconds.Set(0)
	r.bus.Publish(pubsub.TopicConnections, struct{}{})
}
