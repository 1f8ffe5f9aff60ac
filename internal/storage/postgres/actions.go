package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/queue"
)

// ActionRepository implements queue.Store on PostgreSQL. The claim runs in a
// single transaction with row locks, which is the queue's only
// mutual-exclusion mechanism; no in-process lock is layered on top.
type ActionRepository struct {
	db *pgxpool.Pool
}

// NewActionRepository creates an ActionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewActionRepository(db *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: db}
}

// Insert appends a pending action.
func (r *ActionRepository) Insert(ctx context.Context, a *queue.Action) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO queued_actions (id, session_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.SessionID, a.Payload, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting queued action: %w", err)
	}
	return nil
}

// ClaimNext atomically claims the oldest pending action for the session. A
// processing action newer than staleBefore blocks the claim; a stale one is
// marked failed and the claim proceeds.
//
// Postcondition: (nil, nil) iff another processor holds a fresh claim or no
// pending action exists; otherwise the returned action is processing with
// ProcessedAt set.
func (r *ActionRepository) ClaimNext(ctx context.Context, sessionID string, staleBefore time.Time) (*queue.Action, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock any processing row for the session so concurrent claimers
	// serialize here.
	var processingID string
	var processedAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT id, processed_at FROM queued_actions
		WHERE session_id = $1 AND status = $2
		ORDER BY processed_at ASC
		LIMIT 1
		FOR UPDATE`,
		sessionID, queue.StatusProcessing,
	).Scan(&processingID, &processedAt)
	switch {
	case err == nil:
		if processedAt != nil && processedAt.After(staleBefore) {
			// Another processor is active.
			return nil, nil
		}
		if _, err := tx.Exec(ctx, `
			UPDATE queued_actions SET status = $2 WHERE id = $1`,
			processingID, queue.StatusFailed,
		); err != nil {
			return nil, fmt.Errorf("failing stale action: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		// No processing action; proceed to claim.
	default:
		return nil, fmt.Errorf("checking processing action: %w", err)
	}

	var a queue.Action
	now := time.Now().UTC()
	err = tx.QueryRow(ctx, `
		UPDATE queued_actions
		SET status = $3, processed_at = $4
		WHERE id = (
			SELECT id FROM queued_actions
			WHERE session_id = $1 AND status = $2
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id, session_id, payload, status, created_at, processed_at`,
		sessionID, queue.StatusPending, queue.StatusProcessing, now,
	).Scan(&a.ID, &a.SessionID, &a.Payload, &a.Status, &a.CreatedAt, &a.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if cerr := tx.Commit(ctx); cerr != nil {
				return nil, fmt.Errorf("committing claim: %w", cerr)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("claiming pending action: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return &a, nil
}

// Complete marks the action completed and returns the number of actions
// still pending for the session.
func (r *ActionRepository) Complete(ctx context.Context, sessionID, actionID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("beginning complete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := transition(ctx, tx, actionID, queue.StatusCompleted); err != nil {
		return 0, err
	}

	var pending int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM queued_actions
		WHERE session_id = $1 AND status = $2`,
		sessionID, queue.StatusPending,
	).Scan(&pending)
	if err != nil {
		return 0, fmt.Errorf("counting pending actions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing completion: %w", err)
	}
	return pending, nil
}

// Fail marks the action failed.
func (r *ActionRepository) Fail(ctx context.Context, _ string, actionID string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning fail transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := transition(ctx, tx, actionID, queue.StatusFailed); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing failure: %w", err)
	}
	return nil
}

// transition moves a processing action to a terminal status. Transitions
// from any other status are rejected.
func transition(ctx context.Context, tx pgx.Tx, actionID string, to queue.Status) error {
	tag, err := tx.Exec(ctx, `
		UPDATE queued_actions SET status = $2
		WHERE id = $1 AND status = $3`,
		actionID, to, queue.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("updating action status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("action %s is not processing", actionID)
	}
	return nil
}
