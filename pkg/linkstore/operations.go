package linkstore

import (
	"fmt"

	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

// Create appends the link optimistically under a temporary negative id,
// then issues the remote call. On success the temporary record is
// replaced by the authoritative payload; on failure the exact
// pre-operation snapshot is restored and the error returned.
func (s *Store) Create(link relay.CopyLink) (relay.CopyLink, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return relay.CopyLink{}, ErrClosed
	}
	if link.MasterAccount == link.SlaveAccount {
		s.mu.Unlock()
		return relay.CopyLink{}, ErrSameAccount
	}
	if link.Enabled && s.hasEnabledPairLocked(link.MasterAccount, link.SlaveAccount, 0) {
		s.mu.Unlock()
		return relay.CopyLink{}, ErrDuplicatePair
	}

	snapshot := s.snapshotLocked()
	speculative := link
	speculative.ID = s.nextTempID
	s.nextTempID--
	s.links = append(s.links, speculative)
	m := s.beginMutation("create", speculative.ID)
	s.mu.Unlock()
	s.publish()

	created, err := s.api.CreateSetting(s.ctx, link)
	if err != nil {
		s.mu.Lock()
		s.links = snapshot
		s.finishMutation(m, StateRolledBack)
		s.mu.Unlock()
		s.publish()
		return relay.CopyLink{}, fmt.Errorf("create link: %w", err)
	}

	s.mu.Lock()
	if i := s.indexLocked(speculative.ID); i >= 0 {
		s.links[i] = *created
	} else if s.indexLocked(created.ID) < 0 {
		// The temp record disappeared underneath us (a refetch landed
		// while the request was in flight); fall back to an upsert.
		s.links = append(s.links, *created)
	}
	m.LinkID = created.ID
	s.finishMutation(m, StateConfirmed)
	s.mu.Unlock()
	s.publish()

	return *created, nil
}

// Update replaces the record optimistically and issues the remote call.
// A non-nil server payload supersedes the speculative record; a nil
// payload leaves it standing.
func (s *Store) Update(link relay.CopyLink) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.indexLocked(link.ID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update link %d: %w", link.ID, ErrNotFound)
	}
	if link.MasterAccount == link.SlaveAccount {
		s.mu.Unlock()
		return ErrSameAccount
	}
	if link.Enabled && s.hasEnabledPairLocked(link.MasterAccount, link.SlaveAccount, link.ID) {
		s.mu.Unlock()
		return ErrDuplicatePair
	}

	snapshot := s.snapshotLocked()
	s.links[i] = link
	m := s.beginMutation("update", link.ID)
	s.mu.Unlock()
	s.publish()

	updated, err := s.api.UpdateSetting(s.ctx, link)
	if err != nil {
		s.mu.Lock()
		s.links = snapshot
		s.finishMutation(m, StateRolledBack)
		s.mu.Unlock()
		s.publish()
		return fmt.Errorf("update link %d: %w", link.ID, err)
	}

	s.mu.Lock()
	if updated != nil {
		if j := s.indexLocked(updated.ID); j >= 0 {
			s.links[j] = *updated
		}
	}
	s.finishMutation(m, StateConfirmed)
	s.mu.Unlock()
	s.publish()

	return nil
}

// Delete removes the record optimistically and issues the remote call,
// restoring the snapshot on failure.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete link %d: %w", id, ErrNotFound)
	}

	snapshot := s.snapshotLocked()
	s.links = append(s.links[:i], s.links[i+1:]...)
	m := s.beginMutation("delete", id)
	s.mu.Unlock()
	s.publish()

	if err := s.api.DeleteSetting(s.ctx, id); err != nil {
		s.mu.Lock()
		s.links = snapshot
		s.finishMutation(m, StateRolledBack)
		s.mu.Unlock()
		s.publish()
		return fmt.Errorf("delete link %d: %w", id, err)
	}

	s.mu.Lock()
	s.finishMutation(m, StateConfirmed)
	s.mu.Unlock()

	return nil
}
