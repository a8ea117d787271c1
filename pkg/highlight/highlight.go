// Package highlight tracks which accounts light up in response to
// pointer or touch interaction. The interaction mode is chosen once at
// construction from device capability; the rest of the code never
// branches on it again.
package highlight

import (
	"sync"

	"github.com/poruru210/sankey-copier-sub002/pkg/graph"
)

// Mode is the interaction strategy.
type Mode int

const (
	// HoverMode highlights transiently under a pointer, in both
	// directions over enabled links.
	HoverMode Mode = iota
	// SelectMode persists a tapped source until cleared and highlights
	// one-directionally, source to receivers.
	SelectMode
)

// Engine resolves interaction events into a highlighted account set.
type Engine struct {
	mode Mode

	mu             sync.Mutex
	adjacency      *graph.Adjacency
	activeSource   string
	activeReceiver string
}

// New picks the interaction mode from device capability.
func New(touchCapable bool) *Engine {
	mode := HoverMode
	if touchCapable {
		mode = SelectMode
	}
	return &Engine{mode: mode, adjacency: graph.BuildAdjacency(nil)}
}

// Mode returns the strategy selected at construction.
func (e *Engine) Mode() Mode {
	return e.mode
}

// SetAdjacency swaps in the index rebuilt after a link-set change.
func (e *Engine) SetAdjacency(a *graph.Adjacency) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adjacency = a
}

// HoverSource marks a source account as hovered. Ignored in select
// mode.
func (e *Engine) HoverSource(accountID string) {
	if e.mode != HoverMode {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeSource = accountID
}

// HoverReceiver marks a receiver account as hovered. Ignored in select
// mode.
func (e *Engine) HoverReceiver(accountID string) {
	if e.mode != HoverMode {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeReceiver = accountID
}

// Leave clears transient hover state. No-op in select mode, where
// selection persists until the next tap.
func (e *Engine) Leave() {
	if e.mode != HoverMode {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeSource = ""
	e.activeReceiver = ""
}

// Tap selects a source account. Tapping the already-selected source
// clears the selection. Ignored in hover mode.
func (e *Engine) Tap(accountID string) {
	if e.mode != SelectMode {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.activeSource == accountID {
		e.activeSource = ""
		return
	}
	e.activeSource = accountID
}

// Clear drops all interaction state regardless of mode.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeSource = ""
	e.activeReceiver = ""
}

// ActiveSource returns the currently active source account id, if any.
func (e *Engine) ActiveSource() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeSource
}

// Highlighted returns the set of highlighted node ids: the active
// endpoints themselves plus their adjacency over enabled links. Hover
// mode resolves both directions; select mode only source to receivers.
func (e *Engine) Highlighted() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]bool)
	if e.activeSource != "" {
		out[graph.SourceNodeID(e.activeSource)] = true
		for _, slave := range e.adjacency.Slaves(e.activeSource) {
			out[graph.ReceiverNodeID(slave)] = true
		}
	}
	if e.mode == HoverMode && e.activeReceiver != "" {
		out[graph.ReceiverNodeID(e.activeReceiver)] = true
		for _, master := range e.adjacency.Masters(e.activeReceiver) {
			out[graph.SourceNodeID(master)] = true
		}
	}
	return out
}
