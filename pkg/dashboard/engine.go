// Package dashboard wires the link store, the connection registry, the
// view-model builder, the graph builder, the layout engine, and the
// highlight engine into one event loop. All derived state is rebuilt by
// re-reading the current store and registry snapshots; nothing closes
// over state captured before the latest rebuild.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poruru210/sankey-copier-sub002/pkg/graph"
	"github.com/poruru210/sankey-copier-sub002/pkg/highlight"
	"github.com/poruru210/sankey-copier-sub002/pkg/layout"
	"github.com/poruru210/sankey-copier-sub002/pkg/linkstore"
	"github.com/poruru210/sankey-copier-sub002/pkg/metrics"
	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/registry"
	"github.com/poruru210/sankey-copier-sub002/pkg/viewmodel"
)

// DefaultRelayoutDelay coalesces bursts of push events into one
// relayout.
const DefaultRelayoutDelay = 50 * time.Millisecond

// Frame is one rendered state: everything a display surface needs.
type Frame struct {
	Accounts    map[string]*viewmodel.Account
	Graph       *graph.Graph
	Positions   map[string]layout.Position
	Highlighted map[string]bool
}

// Closer is implemented by the push stream.
type Closer interface {
	Close() error
}

// Options tunes the engine.
type Options struct {
	// TouchCapable selects the interaction mode once at startup.
	TouchCapable bool
	// RelayoutDelay overrides DefaultRelayoutDelay when positive.
	RelayoutDelay time.Duration
	// Layout configures the rank layout geometry.
	Layout layout.Config
	// Push, when set, is closed on engine teardown.
	Push Closer
	// OnRender, when set, receives every new frame.
	OnRender func(Frame)
}

// Engine is the dashboard orchestrator.
type Engine struct {
	store    *linkstore.Store
	registry *registry.Registry
	bus      *pubsub.Bus
	logger   *slog.Logger
	metrics  *metrics.Registry
	opts     Options

	overrides *viewmodel.Overrides
	builder   *viewmodel.Builder
	graphs    *graph.Builder
	layout    *layout.Engine
	highlight *highlight.Engine

	mu           sync.Mutex
	filter       graph.Filter
	accounts     map[string]*viewmodel.Account
	graph        *graph.Graph
	positions    map[string]layout.Position
	pendingTimer *time.Timer
	closed       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles an engine over an existing store, registry, and bus.
func New(store *linkstore.Store, reg *registry.Registry, bus *pubsub.Bus, logger *slog.Logger, opts Options) *Engine {
	if opts.RelayoutDelay <= 0 {
		opts.RelayoutDelay = DefaultRelayoutDelay
	}
	overrides := viewmodel.NewOverrides()
	return &Engine{
		store:     store,
		registry:  reg,
		bus:       bus,
		logger:    logger,
		metrics:   metrics.DefaultRegistry(),
		opts:      opts,
		overrides: overrides,
		builder:   viewmodel.NewBuilder(overrides),
		graphs:    graph.NewBuilder(),
		layout:    layout.NewEngine(opts.Layout, logger),
		highlight: highlight.New(opts.TouchCapable),
		accounts:  make(map[string]*viewmodel.Account),
		graph:     &graph.Graph{},
		positions: make(map[string]layout.Position),
	}
}

// Run starts the registry poller and the event loop, performs the
// initial build, and blocks until ctx is cancelled or Close is called.
func (e *Engine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.registry.Run(ctx)
	}()

	linksSub := e.bus.Subscribe(ctx, pubsub.TopicLinks)
	connsSub := e.bus.Subscribe(ctx, pubsub.TopicConnections)
	defer linksSub.Unsubscribe()
	defer connsSub.Unsubscribe()

	e.rebuild()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-linksSub.Channel():
			if !ok {
				return
			}
			e.scheduleRebuild()
		case _, ok := <-connsSub.Channel():
			if !ok {
				return
			}
			e.scheduleRebuild()
		}
	}
}

// Close tears the engine down: the poller stops, bus subscriptions end,
// the push stream closes, and any pending relayout timer is cancelled.
// State is never mutated after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.pendingTimer != nil {
		e.pendingTimer.Stop()
		e.pendingTimer = nil
	}
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()

	if e.opts.Push != nil {
		if err := e.opts.Push.Close(); err != nil {
			e.logger.Warn("push stream close failed", "error", err)
		}
	}
}

// scheduleRebuild arms (or re-arms) the coalescing relayout timer. A
// timer superseded by a newer change is stopped, never left to fire
// with stale state.
func (e *Engine) scheduleRebuild() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.pendingTimer != nil {
		e.pendingTimer.Stop()
	}
	e.pendingTimer = time.AfterFunc(e.opts.RelayoutDelay, e.rebuild)
}

func (e *Engine) rebuild() {
	e.rebuildWith(layout.ChangeDataOnly)
}

// rebuildWith re-reads the current store and registry state, rederives
// the view-models and graph, classifies the change (never below floor),
// and applies the matching relayout policy.
func (e *Engine) rebuildWith(floor layout.ChangeKind) {
	conns := e.registry.Snapshot()
	links := e.store.Links()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	prev := e.accounts
	prevGraph := e.graph
	filter := e.filter
	e.mu.Unlock()

	start := time.Now()
	accounts := e.builder.Build(conns, links, prev)
	g := e.graphs.Build(accounts, links, filter)
	e.highlight.SetAdjacency(graph.BuildAdjacency(links))

	kind := classify(prevGraph, g, prev, accounts).Max(floor)
	positions := e.layout.Apply(kind, g)
	e.metrics.RebuildDuration.Observe(time.Since(start).Seconds())

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.accounts = accounts
	e.graph = g
	e.positions = positions
	e.mu.Unlock()

	e.logger.Debug("dashboard rebuilt",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"relayout", kind.String(),
	)
	e.render()
}

// classify picks the relayout policy: node-count changes force a full
// relayout, expansion or severity flips preserve dragged positions, and
// everything else is a payload-only refresh.
func classify(prevGraph, nextGraph *graph.Graph, prev, next map[string]*viewmodel.Account) layout.ChangeKind {
	if len(prevGraph.Nodes) != len(nextGraph.Nodes) {
		return layout.ChangeFull
	}
	for _, n := range nextGraph.Nodes {
		if prevGraph.Node(n.ID) == nil {
			return layout.ChangeFull
		}
	}
	for id, a := range next {
		p, ok := prev[id]
		if !ok {
			continue
		}
		if a.Expanded != p.Expanded || a.Warning != p.Warning || a.Error != p.Error {
			return layout.ChangePreserve
		}
	}
	return layout.ChangeDataOnly
}

func (e *Engine) render() {
	if e.opts.OnRender == nil {
		return
	}
	e.opts.OnRender(e.Snapshot())
}

// Snapshot returns the current frame.
func (e *Engine) Snapshot() Frame {
	e.mu.Lock()
	accounts := make(map[string]*viewmodel.Account, len(e.accounts))
	for id, a := range e.accounts {
		accounts[id] = a
	}
	g := e.graph
	positions := make(map[string]layout.Position, len(e.positions))
	for id, p := range e.positions {
		positions[id] = p
	}
	e.mu.Unlock()

	return Frame{
		Accounts:    accounts,
		Graph:       g,
		Positions:   positions,
		Highlighted: e.highlight.Highlighted(),
	}
}

// SetFilter restricts the graph to one master account (empty clears the
// filter) and forces a full relayout.
func (e *Engine) SetFilter(masterAccount string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.filter = graph.Filter{MasterAccount: masterAccount}
	e.mu.Unlock()
	// Filter changes always clear position memory, even when the node
	// count happens to stay the same.
	e.rebuildWith(layout.ChangeFull)
}

// Filter returns the active master filter, empty when unfiltered.
func (e *Engine) Filter() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter.MasterAccount
}

// ToggleExpanded flips the per-account expansion flag and rebuilds.
func (e *Engine) ToggleExpanded(accountID string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if a, ok := e.accounts[accountID]; ok {
		a.Expanded = !a.Expanded
	}
	e.mu.Unlock()
	// Expansion is carried over by the builder, so the diff-based
	// classifier cannot see it. Force the preserve policy.
	e.rebuildWith(layout.ChangePreserve)
}

// SetAccountEnabled records a local enable intent for the account and
// rebuilds. The override holds until ResyncAccount.
func (e *Engine) SetAccountEnabled(accountID string, enabled bool) {
	e.overrides.SetEnabled(accountID, enabled)
	e.rebuild()
}

// ResyncAccount drops the local override, restoring the server flag.
func (e *Engine) ResyncAccount(accountID string) {
	e.overrides.Resync(accountID)
	e.rebuild()
}

// Drag pins a node at a user-chosen position and re-renders without
// relayout.
func (e *Engine) Drag(nodeID string, pos layout.Position) {
	e.layout.SetDragged(nodeID, pos)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.positions[nodeID] = pos
	e.mu.Unlock()
	e.render()
}

// HoverSource, HoverReceiver, LeaveHover and Tap forward interaction
// events to the highlight engine and re-render.
func (e *Engine) HoverSource(accountID string) {
	e.highlight.HoverSource(accountID)
	e.render()
}

func (e *Engine) HoverReceiver(accountID string) {
	e.highlight.HoverReceiver(accountID)
	e.render()
}

func (e *Engine) LeaveHover() {
	e.highlight.Leave()
	e.render()
}

func (e *Engine) Tap(accountID string) {
	e.highlight.Tap(accountID)
	e.render()
}
