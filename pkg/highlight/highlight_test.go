package highlight

import (
	"testing"

	"github.com/poruru210/sankey-copier-sub002/pkg/graph"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

func testAdjacency() *graph.Adjacency {
	return graph.BuildAdjacency([]relay.CopyLink{
		{ID: 1, MasterAccount: "m1", SlaveAccount: "s1", Enabled: true},
		{ID: 2, MasterAccount: "m1", SlaveAccount: "s2", Enabled: true},
		{ID: 3, MasterAccount: "m2", SlaveAccount: "s1", Enabled: true},
		{ID: 4, MasterAccount: "m1", SlaveAccount: "s3", Enabled: false},
	})
}

func TestNewSelectsModeFromCapability(t *testing.T) {
	if New(false).Mode() != HoverMode {
		t.Error("Expected hover mode for pointer devices")
	}
	if New(true).Mode() != SelectMode {
		t.Error("Expected select mode for touch devices")
	}
}

func TestHoverSourceHighlightsItsReceivers(t *testing.T) {
	e := New(false)
	e.SetAdjacency(testAdjacency())

	e.HoverSource("m1")
	h := e.Highlighted()

	for _, want := range []string{
		graph.SourceNodeID("m1"),
		graph.ReceiverNodeID("s1"),
		graph.ReceiverNodeID("s2"),
	} {
		if !h[want] {
			t.Errorf("Expected %s highlighted", want)
		}
	}
	if h[graph.ReceiverNodeID("s3")] {
		t.Error("Expected disabled-link receiver not highlighted")
	}
	if h[graph.SourceNodeID("m2")] {
		t.Error("Expected unrelated master not highlighted")
	}
}

func TestHoverReceiverHighlightsItsMasters(t *testing.T) {
	e := New(false)
	e.SetAdjacency(testAdjacency())

	e.HoverReceiver("s1")
	h := e.Highlighted()

	if !h[graph.ReceiverNodeID("s1")] {
		t.Error("Expected hovered receiver highlighted")
	}
	if !h[graph.SourceNodeID("m1")] || !h[graph.SourceNodeID("m2")] {
		t.Error("Expected both feeding masters highlighted")
	}
}

func TestLeaveClearsHover(t *testing.T) {
	e := New(false)
	e.SetAdjacency(testAdjacency())

	e.HoverSource("m1")
	e.Leave()

	if len(e.Highlighted()) != 0 {
		t.Error("Expected no highlights after pointer leave")
	}
}

func TestTapPersistsAndRetapClears(t *testing.T) {
	e := New(true)
	e.SetAdjacency(testAdjacency())

	e.Tap("m1")
	if len(e.Highlighted()) == 0 {
		t.Fatal("Expected highlights after tap")
	}

	// Selection persists; Leave is hover-only.
	e.Leave()
	if len(e.Highlighted()) == 0 {
		t.Error("Expected tap selection to persist across leave")
	}

	e.Tap("m1")
	if len(e.Highlighted()) != 0 {
		t.Error("Expected re-tap to clear the selection")
	}
}

func TestSelectModeIsOneDirectional(t *testing.T) {
	e := New(true)
	e.SetAdjacency(testAdjacency())

	// No receiver hover concept on touch.
	e.HoverReceiver("s1")
	if len(e.Highlighted()) != 0 {
		t.Error("Expected receiver hover ignored in select mode")
	}

	e.Tap("m1")
	h := e.Highlighted()
	if !h[graph.ReceiverNodeID("s1")] || !h[graph.ReceiverNodeID("s2")] {
		t.Error("Expected tapped source to light its receivers")
	}
}

func TestHoverIgnoredInSelectMode(t *testing.T) {
	e := New(true)
	e.SetAdjacency(testAdjacency())

	e.HoverSource("m1")
	if len(e.Highlighted()) != 0 {
		t.Error("Expected hover events ignored on touch devices")
	}
}

func TestAdjacencySwapChangesLookups(t *testing.T) {
	e := New(false)
	e.SetAdjacency(testAdjacency())
	e.HoverSource("m1")

	e.SetAdjacency(graph.BuildAdjacency([]relay.CopyLink{
		{ID: 1, MasterAccount: "m1", SlaveAccount: "s9", Enabled: true},
	}))

	h := e.Highlighted()
	if !h[graph.ReceiverNodeID("s9")] {
		t.Error("Expected new adjacency consulted")
	}
	if h[graph.ReceiverNodeID("s1")] {
		t.Error("Expected stale adjacency discarded")
	}
}
