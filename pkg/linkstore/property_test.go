package linkstore

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

func sameLinks(a, b []relay.CopyLink) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// TestReconciliationInvariants verifies that push-event application is
// idempotent and order-insensitive in the ways the reconciliation
// contract promises: replaying any event is harmless, and deletes of
// absent ids never disturb state.
func TestReconciliationInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	genLink := gopter.CombineGens(
		gen.Int64Range(1, 50),
		gen.Int64Range(1, 5),
		gen.Int64Range(1, 5),
		gen.Bool(),
	).Map(func(vals []any) relay.CopyLink {
		return relay.CopyLink{
			ID:            vals[0].(int64),
			MasterAccount: fmt.Sprintf("master-%d", vals[1].(int64)),
			SlaveAccount:  fmt.Sprintf("slave-%d", vals[2].(int64)),
			Enabled:       vals[3].(bool),
		}
	})

	// Property 1: replaying an update event leaves state identical to
	// applying it once.
	properties.Property("updated event replay is idempotent", prop.ForAll(
		func(seed []relay.CopyLink, link relay.CopyLink) bool {
			s := New(newFakeAPI(), pubsub.NewBus(), testLogger(), Options{})
			defer s.Close()
			for i := range seed {
				s.upsert(seed[i])
			}

			ev := relay.Event{Type: relay.EventUpdated, ID: link.ID, Link: &link}
			s.ApplyEvent(ev)
			once := s.Links()
			s.ApplyEvent(ev)
			twice := s.Links()

			return sameLinks(once, twice)
		},
		gen.SliceOf(genLink),
		genLink,
	))

	// Property 2: a delete for an id the store does not hold is a no-op.
	properties.Property("delete of absent id is a no-op", prop.ForAll(
		func(seed []relay.CopyLink, id int64) bool {
			s := New(newFakeAPI(), pubsub.NewBus(), testLogger(), Options{})
			defer s.Close()
			for i := range seed {
				s.upsert(seed[i])
			}

			// Pick an id guaranteed absent.
			absent := id + 1000
			before := s.Links()
			s.ApplyEvent(relay.Event{Type: relay.EventDeleted, ID: absent})
			after := s.Links()

			return sameLinks(before, after)
		},
		gen.SliceOf(genLink),
		gen.Int64Range(1, 50),
	))

	// Property 3: create followed by duplicate create delivery holds
	// exactly one record for the id.
	properties.Property("duplicate created delivery never duplicates records", prop.ForAll(
		func(link relay.CopyLink) bool {
			s := New(newFakeAPI(), pubsub.NewBus(), testLogger(), Options{})
			defer s.Close()

			ev := relay.Event{Type: relay.EventCreated, ID: link.ID, Link: &link}
			s.ApplyEvent(ev)
			s.ApplyEvent(ev)

			count := 0
			for _, l := range s.Links() {
				if l.ID == link.ID {
					count++
				}
			}
			return count == 1
		},
		genLink,
	))

	properties.TestingRun(t)
}
