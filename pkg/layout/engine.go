package layout

import (
	"log/slog"
	"sync"

	"github.com/poruru210/sankey-copier-sub002/pkg/graph"
	"github.com/poruru210/sankey-copier-sub002/pkg/metrics"
)

// ChangeKind classifies a rebuild for relayout purposes.
type ChangeKind int

const (
	// ChangeDataOnly updates node/edge payloads without touching
	// positions. Hover state, settings payload edits, pending flags.
	ChangeDataOnly ChangeKind = iota
	// ChangePreserve recomputes positions but keeps user-dragged nodes
	// where the user put them. Expansion and warning/error flips.
	ChangePreserve
	// ChangeFull recomputes everything and clears dragged markers. Node
	// count or filter changes.
	ChangeFull
)

// String returns the metric label for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeDataOnly:
		return "data_only"
	case ChangePreserve:
		return "preserve"
	case ChangeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Max returns the more severe of two change kinds.
func (k ChangeKind) Max(other ChangeKind) ChangeKind {
	if other > k {
		return other
	}
	return k
}

// Engine owns the position map and the dragged-node markers.
type Engine struct {
	layout  *RankLayout
	logger  *slog.Logger
	metrics *metrics.Registry

	mu        sync.Mutex
	positions map[string]Position
	dragged   map[string]bool
}

// NewEngine creates an engine with no positions assigned yet.
func NewEngine(config Config, logger *slog.Logger) *Engine {
	return &Engine{
		layout:    NewRankLayout(config),
		logger:    logger,
		metrics:   metrics.DefaultRegistry(),
		positions: make(map[string]Position),
		dragged:   make(map[string]bool),
	}
}

// Apply runs the relayout policy for the given change kind against the
// current graph and returns the resulting position map.
//
// Full: dragged markers cleared, every node freshly positioned.
// Preserve: fresh positions, then dragged nodes restored to their prior
// spot. DataOnly: the layout algorithm is not invoked; positions for
// nodes that already exist are returned unchanged.
func (e *Engine) Apply(kind ChangeKind, g *graph.Graph) map[string]Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case ChangeFull:
		e.dragged = make(map[string]bool)
		e.positions = e.layout.ComputeLayout(g)
	case ChangePreserve:
		prior := e.positions
		fresh := e.layout.ComputeLayout(g)
		for id := range e.dragged {
			if p, ok := prior[id]; ok {
				if _, exists := fresh[id]; exists {
					fresh[id] = p
				}
			}
		}
		e.positions = fresh
	case ChangeDataOnly:
		// Payload-only refresh. Positions stay exactly as they are.
	}

	e.metrics.RecordRelayout(kind.String())
	return e.snapshotLocked()
}

// SetDragged records a manual position change. The node is pinned at
// pos until the next full relayout.
func (e *Engine) SetDragged(nodeID string, pos Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragged[nodeID] = true
	e.positions[nodeID] = pos
	e.logger.Debug("node pinned by drag", "node", nodeID, "x", pos.X, "y", pos.Y)
}

// Dragged reports whether the node is currently pinned.
func (e *Engine) Dragged(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dragged[nodeID]
}

// Positions returns a copy of the current position map.
func (e *Engine) Positions() map[string]Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() map[string]Position {
	out := make(map[string]Position, len(e.positions))
	for id, p := range e.positions {
		out[id] = p
	}
	return out
}
