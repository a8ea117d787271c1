package linkstore

import (
	"fmt"

	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

// ApplyEvent reconciles one push-channel event into the store. Events are
// applied as idempotent full-record replaces or removals by id, so
// duplicate or out-of-order delivery cannot corrupt state. A delete for
// an id that is already gone is a no-op. EventResync triggers a full
// authoritative refetch.
func (s *Store) ApplyEvent(ev relay.Event) {
	s.metrics.RecordPushEvent(ev.Type.String())

	switch ev.Type {
	case relay.EventCreated, relay.EventUpdated:
		if ev.Link == nil {
			s.logger.Warn("push event without payload, refetching", "type", ev.Type.String())
			s.resync()
			return
		}
		if s.upsert(*ev.Link) {
			s.publish()
		}

	case relay.EventDeleted:
		if s.remove(ev.ID) {
			s.publish()
		} else {
			s.logger.Debug("delete event for absent link ignored", "link_id", ev.ID)
		}

	case relay.EventResync:
		s.resync()
	}
}

// Refetch replaces the visible list with the authoritative server state.
func (s *Store) Refetch() error {
	links, err := s.api.GetSettings(s.ctx)
	if err != nil {
		return fmt.Errorf("refetch settings: %w", err)
	}

	s.mu.Lock()
	s.links = links
	s.mu.Unlock()
	s.publish()

	return nil
}

func (s *Store) resync() {
	if err := s.Refetch(); err != nil {
		s.logger.Error("authoritative refetch failed", "error", err)
	}
}

// upsert replaces the record with the same id, or appends it. Returns
// false when the store already held an identical record.
func (s *Store) upsert(link relay.CopyLink) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(link.ID); i >= 0 {
		if s.links[i].Equal(link) {
			return false
		}
		s.links[i] = link
		return true
	}
	s.links = append(s.links, link)
	return true
}

// remove deletes the record by id, reporting whether it existed.
func (s *Store) remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(id); i >= 0 {
		s.links = append(s.links[:i], s.links[i+1:]...)
		return true
	}
	return false
}
