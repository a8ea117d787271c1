// Package layout assigns positions to graph nodes with a rank-based
// auto-layout: source nodes in the left column, receivers in the right.
// Node positions are the one piece of state allowed to survive graph
// rebuilds; the engine tracks user-dragged nodes and pins them across
// position-preserving relayouts.
package layout

import (
	"sort"

	"github.com/poruru210/sankey-copier-sub002/pkg/graph"
)

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config configures the rank layout.
type Config struct {
	Width          float64 // Canvas width
	Padding        float64 // Padding from edges
	NodeHeight     float64 // Collapsed card height
	ExpandedHeight float64 // Expanded card height
	VerticalGap    float64 // Gap between stacked cards
}

// DefaultConfig returns the standard canvas geometry.
func DefaultConfig() Config {
	return Config{
		Width:          1200,
		Padding:        50,
		NodeHeight:     80,
		ExpandedHeight: 180,
		VerticalGap:    24,
	}
}

// RankLayout computes two-column positions for a graph.
type RankLayout struct {
	config Config
}

// NewRankLayout creates a rank layout with the given config, filling in
// zero fields from DefaultConfig.
func NewRankLayout(config Config) *RankLayout {
	def := DefaultConfig()
	if config.Width == 0 {
		config.Width = def.Width
	}
	if config.Padding == 0 {
		config.Padding = def.Padding
	}
	if config.NodeHeight == 0 {
		config.NodeHeight = def.NodeHeight
	}
	if config.ExpandedHeight == 0 {
		config.ExpandedHeight = def.ExpandedHeight
	}
	if config.VerticalGap == 0 {
		config.VerticalGap = def.VerticalGap
	}
	return &RankLayout{config: config}
}

// ComputeLayout positions every node: sources stacked in the left
// column, receivers in the right, each column sorted by account id so
// identical inputs produce identical layouts. Expanded cards consume
// their expanded height.
func (rl *RankLayout) ComputeLayout(g *graph.Graph) map[string]Position {
	positions := make(map[string]Position, len(g.Nodes))

	var sources, receivers []*graph.Node
	for _, n := range g.Nodes {
		switch n.Kind {
		case graph.KindSource:
			sources = append(sources, n)
		default:
			receivers = append(receivers, n)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].AccountID < sources[j].AccountID })
	sort.Slice(receivers, func(i, j int) bool { return receivers[i].AccountID < receivers[j].AccountID })

	sourceX := rl.config.Padding
	receiverX := rl.config.Width - rl.config.Padding

	rl.stack(positions, sources, sourceX)
	rl.stack(positions, receivers, receiverX)
	return positions
}

func (rl *RankLayout) stack(positions map[string]Position, column []*graph.Node, x float64) {
	y := rl.config.Padding
	for _, n := range column {
		h := rl.config.NodeHeight
		if n.Account != nil && n.Account.Expanded {
			h = rl.config.ExpandedHeight
		}
		positions[n.ID] = Position{X: x, Y: y + h/2}
		y += h + rl.config.VerticalGap
	}
}
