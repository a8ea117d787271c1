// Package linkstore holds the canonical local list of copy links and
// keeps it consistent through optimistic mutation, per-link toggle
// debouncing, and idempotent reconciliation against push events.
package linkstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poruru210/sankey-copier-sub002/pkg/metrics"
	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

// DefaultDebounceWindow is the trailing window for toggle coalescing.
const DefaultDebounceWindow = 300 * time.Millisecond

// RemoteAPI is the slice of the relay client the store depends on.
type RemoteAPI interface {
	GetSettings(ctx context.Context) ([]relay.CopyLink, error)
	CreateSetting(ctx context.Context, link relay.CopyLink) (*relay.CopyLink, error)
	UpdateSetting(ctx context.Context, link relay.CopyLink) (*relay.CopyLink, error)
	DeleteSetting(ctx context.Context, id int64) error
	ToggleSetting(ctx context.Context, id int64, enabled bool) (*relay.CopyLink, error)
}

// Options tunes store behavior.
type Options struct {
	// DebounceWindow overrides DefaultDebounceWindow when positive.
	DebounceWindow time.Duration
}

// Store is the locally-held copy-link list. All reads return copies; the
// visible list always reflects the latest local intent, even while remote
// confirmation is pending.
type Store struct {
	api     RemoteAPI
	bus     *pubsub.Bus
	logger  *slog.Logger
	metrics *metrics.Registry

	mu        sync.Mutex
	links     []relay.CopyLink
	mutations []*Mutation
	toggles   map[int64]*pendingToggle
	window    time.Duration

	// Temporary ids for optimistic creates count down from -1 so they can
	// never collide with server-assigned ids.
	nextTempID int64

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New creates an empty store. Call Refetch to load the initial list.
func New(api RemoteAPI, bus *pubsub.Bus, logger *slog.Logger, opts Options) *Store {
	window := opts.DebounceWindow
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		api:        api,
		bus:        bus,
		logger:     logger,
		metrics:    metrics.DefaultRegistry(),
		toggles:    make(map[int64]*pendingToggle),
		window:     window,
		nextTempID: -1,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close stops pending debounce timers and rejects further mutations.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancel()

	for id, pt := range s.toggles {
		if pt.timer != nil {
			pt.timer.Stop()
		}
		delete(s.toggles, id)
	}
}

// Links returns a copy of the visible list.
func (s *Store) Links() []relay.CopyLink {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]relay.CopyLink, len(s.links))
	copy(out, s.links)
	return out
}

// Get returns the visible record for id.
func (s *Store) Get(id int64) (relay.CopyLink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.links[i], true
	}
	return relay.CopyLink{}, false
}

// Count returns the number of visible links.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

// Mutations returns a snapshot of all mutation records this session.
func (s *Store) Mutations() []Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Mutation, len(s.mutations))
	for i, m := range s.mutations {
		out[i] = *m
	}
	return out
}

// indexLocked returns the position of id in the list, or -1.
func (s *Store) indexLocked(id int64) int {
	for i := range s.links {
		if s.links[i].ID == id {
			return i
		}
	}
	return -1
}

// hasEnabledPairLocked reports whether an enabled link other than exclude
// already covers the (master, slave) pair.
func (s *Store) hasEnabledPairLocked(master, slave string, exclude int64) bool {
	for i := range s.links {
		l := &s.links[i]
		if l.ID != exclude && l.Enabled && l.MasterAccount == master && l.SlaveAccount == slave {
			return true
		}
	}
	return false
}

// snapshotLocked copies the full visible list for exact rollback.
func (s *Store) snapshotLocked() []relay.CopyLink {
	snap := make([]relay.CopyLink, len(s.links))
	copy(snap, s.links)
	return snap
}

// publish wakes subscribers and refreshes the store gauges.
func (s *Store) publish() {
	s.mu.Lock()
	total := len(s.links)
	enabled := 0
	for i := range s.links {
		if s.links[i].Enabled {
			enabled++
		}
	}
	s.mu.Unlock()

	s.metrics.UpdateLinkCounts(total, enabled)
	s.bus.Publish(pubsub.TopicLinks, struct{}{})
}
