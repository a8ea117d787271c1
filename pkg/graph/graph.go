// Package graph maps the account view-model set and the copy-link list
// into a renderable node/edge model. The same underlying account can
// appear twice: once as a source node and once as a receiver node.
package graph

import (
	"fmt"
	"sort"

	"github.com/poruru210/sankey-copier-sub002/pkg/metrics"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
	"github.com/poruru210/sankey-copier-sub002/pkg/viewmodel"
)

// Node kinds. Source nodes sit in the left rank, receivers in the right.
const (
	KindSource   = "source"
	KindReceiver = "receiver"
)

// SourceNodeID returns the node id for an account in its master role.
func SourceNodeID(accountID string) string {
	return "source-" + accountID
}

// ReceiverNodeID returns the node id for an account in its slave role.
func ReceiverNodeID(accountID string) string {
	return "receiver-" + accountID
}

// EdgeID returns the edge id for a copy link.
func EdgeID(linkID int64) string {
	return fmt.Sprintf("edge-%d", linkID)
}

// Node is one renderable account card.
type Node struct {
	ID        string
	AccountID string
	Kind      string
	Account   *viewmodel.Account
}

// Edge is one renderable copy link. Source and Target are node ids.
type Edge struct {
	ID     string
	Source string
	Target string
	Link   relay.CopyLink
}

// Filter restricts the graph to one master and the receivers reachable
// over its currently-enabled links. The zero value shows everything.
type Filter struct {
	MasterAccount string
}

// Graph is the built model. Nodes and Edges are sorted by id so builds
// over identical inputs are byte-identical.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	nodeIndex map[string]*Node
}

// Builder builds graph models.
type Builder struct {
	metrics *metrics.Registry
}

// NewBuilder creates a graph builder.
func NewBuilder() *Builder {
	return &Builder{metrics: metrics.DefaultRegistry()}
}

// Build produces the graph for the current view-models and links. Edges
// whose source or target node is absent, because the account was
// filtered out or never materialized, are dropped rather than kept
// dangling.
func (b *Builder) Build(
	accounts map[string]*viewmodel.Account,
	links []relay.CopyLink,
	filter Filter,
) *Graph {
	g := &Graph{nodeIndex: make(map[string]*Node)}

	sourceWanted := make(map[string]bool)
	receiverWanted := make(map[string]bool)
	for i := range links {
		l := &links[i]
		if filter.MasterAccount != "" {
			if l.MasterAccount != filter.MasterAccount {
				continue
			}
			// The filtered master is always shown; its receivers only
			// when the link is currently enabled.
			sourceWanted[l.MasterAccount] = true
			if l.Enabled {
				receiverWanted[l.SlaveAccount] = true
			}
			continue
		}
		sourceWanted[l.MasterAccount] = true
		receiverWanted[l.SlaveAccount] = true
	}
	if filter.MasterAccount != "" {
		// Show the master even if it currently has no links in view.
		if _, ok := accounts[filter.MasterAccount]; ok {
			sourceWanted[filter.MasterAccount] = true
		}
	}

	addNode := func(id, accountID, kind string) {
		account, ok := accounts[accountID]
		if !ok {
			return
		}
		n := &Node{ID: id, AccountID: accountID, Kind: kind, Account: account}
		g.Nodes = append(g.Nodes, n)
		g.nodeIndex[id] = n
	}
	for id := range sourceWanted {
		addNode(SourceNodeID(id), id, KindSource)
	}
	for id := range receiverWanted {
		addNode(ReceiverNodeID(id), id, KindReceiver)
	}

	dangling := 0
	for i := range links {
		l := links[i]
		src := SourceNodeID(l.MasterAccount)
		dst := ReceiverNodeID(l.SlaveAccount)
		if g.nodeIndex[src] == nil || g.nodeIndex[dst] == nil {
			dangling++
			continue
		}
		g.Edges = append(g.Edges, &Edge{
			ID:     EdgeID(l.ID),
			Source: src,
			Target: dst,
			Link:   l,
		})
	}

	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool { return g.Edges[i].Link.ID < g.Edges[j].Link.ID })

	if dangling > 0 {
		b.metrics.DanglingEdgesTotal.Add(float64(dangling))
	}
	b.metrics.UpdateGraphSize(len(g.Nodes), len(g.Edges))
	return g
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodeIndex[id]
}
