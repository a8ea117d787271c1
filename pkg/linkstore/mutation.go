package linkstore

import (
	"time"

	"github.com/google/uuid"
)

// MutationState is the explicit three-state tag every in-flight mutation
// carries: speculative, server-confirmed, or rolled back after failure.
type MutationState int

const (
	StatePending MutationState = iota
	StateConfirmed
	StateRolledBack
)

func (s MutationState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Mutation records one store operation and its lifecycle.
type Mutation struct {
	ID         uuid.UUID
	Op         string
	LinkID     int64
	State      MutationState
	StartedAt  time.Time
	FinishedAt time.Time
}

// beginMutation registers a pending mutation record. Caller holds s.mu.
func (s *Store) beginMutation(op string, linkID int64) *Mutation {
	m := &Mutation{
		ID:        uuid.New(),
		Op:        op,
		LinkID:    linkID,
		State:     StatePending,
		StartedAt: time.Now(),
	}
	s.mutations = append(s.mutations, m)
	return m
}

// finishMutation seals the record and emits metrics. Caller holds s.mu.
func (s *Store) finishMutation(m *Mutation, state MutationState) {
	m.State = state
	m.FinishedAt = time.Now()
	s.metrics.RecordMutation(m.Op, state.String(), m.FinishedAt.Sub(m.StartedAt))
}
