package linkstore

import (
	"fmt"
	"time"

	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

// pendingToggle tracks the debounce window for one link id. snapshot is
// the record as it stood before the first flip of the window, so a
// failed remote call can restore the exact pre-operation state.
type pendingToggle struct {
	timer    *time.Timer
	desired  bool
	snapshot relay.CopyLink
}

// Toggle flips the visible enabled state immediately and schedules the
// remote call behind a trailing debounce window. Repeated toggles on the
// same id within the window are coalesced: only the last desired state is
// ever sent.
func (s *Store) Toggle(id int64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("toggle link %d: %w", id, ErrNotFound)
	}

	link := &s.links[i]
	desired := !link.Enabled
	if desired && s.hasEnabledPairLocked(link.MasterAccount, link.SlaveAccount, id) {
		s.mu.Unlock()
		return ErrDuplicatePair
	}

	pt, ok := s.toggles[id]
	if !ok {
		pt = &pendingToggle{snapshot: *link}
		s.toggles[id] = pt
	} else {
		// A timer was already armed for this id; this flip rides the
		// same window instead of generating another network call.
		pt.timer.Stop()
		s.metrics.TogglesCoalescedTotal.Inc()
	}

	link.Enabled = desired
	pt.desired = desired
	pt.timer = time.AfterFunc(s.window, func() { s.flushToggle(id) })

	s.mu.Unlock()
	s.publish()

	return nil
}

// flushToggle sends the final desired state for id once its debounce
// window has elapsed.
func (s *Store) flushToggle(id int64) {
	s.mu.Lock()
	pt, ok := s.toggles[id]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.toggles, id)

	// One call per window, carrying only the final desired state. The
	// remote toggle is idempotent, so sending a state equal to the
	// starting one is harmless.
	desired := pt.desired
	snapshot := pt.snapshot
	m := s.beginMutation("toggle", id)
	s.mu.Unlock()

	updated, err := s.api.ToggleSetting(s.ctx, id, desired)
	if err != nil {
		// Restore only this record: other links may have moved on while
		// the window was open.
		s.mu.Lock()
		if i := s.indexLocked(id); i >= 0 {
			s.links[i] = snapshot
		}
		s.finishMutation(m, StateRolledBack)
		s.mu.Unlock()
		s.publish()
		s.logger.Error("toggle rolled back", "link_id", id, "error", err)
		return
	}

	s.mu.Lock()
	if updated != nil {
		if i := s.indexLocked(updated.ID); i >= 0 {
			s.links[i] = *updated
		}
	}
	s.finishMutation(m, StateConfirmed)
	s.mu.Unlock()
	s.publish()
}
