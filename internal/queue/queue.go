// Package queue provides the per-session action serialization queue. A
// transactional store claim is the sole mutual-exclusion mechanism: at most
// one action per session is ever in the processing state, even under
// concurrent claim attempts.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is a queued action's lifecycle state. Transitions are strictly
// pending → processing → {completed|failed}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DefaultStaleness is the age past which a processing action is presumed
// abandoned and becomes reclaimable.
const DefaultStaleness = 60 * time.Second

// Action is one queued player action.
type Action struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	// ProcessedAt is set when the action transitions to processing; a
	// processing action's staleness is measured from it.
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// Store is the transactional persistence behind the queue. Implementations
// must make ClaimNext atomic with respect to concurrent callers: the store
// transaction is the lock, no in-process mutex is layered on top.
type Store interface {
	// Insert appends a pending action.
	Insert(ctx context.Context, a *Action) error
	// ClaimNext atomically claims the oldest pending action for the
	// session. When a processing action newer than staleBefore exists the
	// claim fails and (nil, nil) is returned. A processing action older
	// than staleBefore is marked failed before the claim proceeds.
	ClaimNext(ctx context.Context, sessionID string, staleBefore time.Time) (*Action, error)
	// Complete marks the action completed and returns the number of
	// actions still pending for the session.
	Complete(ctx context.Context, sessionID, actionID string) (int, error)
	// Fail marks the action failed.
	Fail(ctx context.Context, sessionID, actionID string) error
}

// Queue serializes actions per session on top of a transactional Store.
type Queue struct {
	store     Store
	staleness time.Duration
	logger    *zap.Logger
}

// New creates a Queue. A non-positive staleness falls back to DefaultStaleness.
//
// Precondition: store and logger must be non-nil.
func New(store Store, staleness time.Duration, logger *zap.Logger) *Queue {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &Queue{store: store, staleness: staleness, logger: logger}
}

// Enqueue appends a pending action and returns its id.
//
// Precondition: sessionID must be non-empty; payload must be valid JSON.
func (q *Queue) Enqueue(ctx context.Context, sessionID string, payload []byte) (string, error) {
	a := &Action{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := q.store.Insert(ctx, a); err != nil {
		return "", err
	}
	q.logger.Debug("action enqueued",
		zap.String("session_id", sessionID),
		zap.String("action_id", a.ID),
	)
	return a.ID, nil
}

// ClaimNext attempts to claim the oldest pending action for the session.
// (nil, nil) means another processor currently holds the claim; the caller
// should report the action as queued rather than treat this as an error.
func (q *Queue) ClaimNext(ctx context.Context, sessionID string) (*Action, error) {
	staleBefore := time.Now().UTC().Add(-q.staleness)
	a, err := q.store.ClaimNext(ctx, sessionID, staleBefore)
	if err != nil {
		return nil, err
	}
	if a != nil {
		q.logger.Debug("action claimed",
			zap.String("session_id", sessionID),
			zap.String("action_id", a.ID),
		)
	}
	return a, nil
}

// Complete marks the action completed and reports whether more actions are
// pending for the session.
func (q *Queue) Complete(ctx context.Context, sessionID, actionID string) (bool, error) {
	pending, err := q.store.Complete(ctx, sessionID, actionID)
	if err != nil {
		return false, err
	}
	return pending > 0, nil
}

// Fail marks the action failed.
func (q *Queue) Fail(ctx context.Context, sessionID, actionID string) error {
	q.logger.Warn("action failed",
		zap.String("session_id", sessionID),
		zap.String("action_id", actionID),
	)
	return q.store.Fail(ctx, sessionID, actionID)
}
