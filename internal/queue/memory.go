package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with the same claim semantics as the
// postgres store: a single mutex plays the role of the store transaction.
// Used by tests and single-instance deployments without a database.
type MemoryStore struct {
	mu      sync.Mutex
	actions map[string][]*Action // sessionID → actions in insert order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{actions: make(map[string][]*Action)}
}

// Insert appends a pending action.
func (s *MemoryStore) Insert(_ context.Context, a *Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.actions[a.SessionID] = append(s.actions[a.SessionID], &cp)
	return nil
}

// ClaimNext implements the atomic claim: a fresh processing action blocks
// the claim, a stale one is failed, then the oldest pending action is
// transitioned to processing.
func (s *MemoryStore) ClaimNext(_ context.Context, sessionID string, staleBefore time.Time) (*Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actions[sessionID] {
		if a.Status != StatusProcessing {
			continue
		}
		if a.ProcessedAt != nil && a.ProcessedAt.After(staleBefore) {
			// Another processor is active.
			return nil, nil
		}
		a.Status = StatusFailed
	}

	for _, a := range s.actions[sessionID] {
		if a.Status != StatusPending {
			continue
		}
		now := time.Now().UTC()
		a.Status = StatusProcessing
		a.ProcessedAt = &now
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

// Complete marks the action completed and counts remaining pending actions.
func (s *MemoryStore) Complete(_ context.Context, sessionID, actionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(sessionID, actionID, StatusCompleted); err != nil {
		return 0, err
	}
	pending := 0
	for _, a := range s.actions[sessionID] {
		if a.Status == StatusPending {
			pending++
		}
	}
	return pending, nil
}

// Fail marks the action failed.
func (s *MemoryStore) Fail(_ context.Context, sessionID, actionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(sessionID, actionID, StatusFailed)
}

func (s *MemoryStore) transition(sessionID, actionID string, to Status) error {
	for _, a := range s.actions[sessionID] {
		if a.ID == actionID {
			if a.Status != StatusProcessing {
				return fmt.Errorf("queue: action %s is %s, not processing", actionID, a.Status)
			}
			a.Status = to
			return nil
		}
	}
	return fmt.Errorf("queue: action %s not found for session %s", actionID, sessionID)
}

// snapshot returns copies of all actions for the session, for tests.
func (s *MemoryStore) snapshot(sessionID string) []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Action, 0, len(s.actions[sessionID]))
	for _, a := range s.actions[sessionID] {
		out = append(out, *a)
	}
	return out
}
