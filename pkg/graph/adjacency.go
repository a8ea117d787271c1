package graph

import "github.com/poruru210/sankey-copier-sub002/pkg/relay"

// Adjacency is the bidirectional account index derived from the
// currently-enabled links. It is rebuilt once per link-set change and
// shared by every highlight lookup until the next rebuild.
type Adjacency struct {
	slavesOf  map[string][]string
	mastersOf map[string][]string
}

// BuildAdjacency indexes the enabled links in both directions. Disabled
// links do not participate in highlighting.
func BuildAdjacency(links []relay.CopyLink) *Adjacency {
	a := &Adjacency{
		slavesOf:  make(map[string][]string),
		mastersOf: make(map[string][]string),
	}
	for i := range links {
		l := &links[i]
		if !l.Enabled {
			continue
		}
		a.slavesOf[l.MasterAccount] = append(a.slavesOf[l.MasterAccount], l.SlaveAccount)
		a.mastersOf[l.SlaveAccount] = append(a.mastersOf[l.SlaveAccount], l.MasterAccount)
	}
	return a
}

// Slaves returns the accounts receiving from the given master over
// enabled links.
func (a *Adjacency) Slaves(masterAccount string) []string {
	return a.slavesOf[masterAccount]
}

// Masters returns the accounts feeding the given slave over enabled
// links.
func (a *Adjacency) Masters(slaveAccount string) []string {
	return a.mastersOf[slaveAccount]
}
