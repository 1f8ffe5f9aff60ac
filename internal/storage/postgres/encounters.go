package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/encounter"
)

// EncounterRepository implements encounter.Store. The aggregate is stored as
// a JSONB state document alongside indexed id/session/status columns, so a
// phase save is a single upsert.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Save upserts the encounter row and its state document.
//
// Postcondition: A subsequent read returns exactly this state.
func (r *EncounterRepository) Save(ctx context.Context, e *encounter.Encounter) error {
	state, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding encounter state: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO encounters (id, session_id, status, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at`,
		e.ID, e.SessionID, e.Status, state, e.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving encounter: %w", err)
	}
	return nil
}

// ActiveBySession returns the single active encounter for the session.
//
// Postcondition: Returns encounter.ErrNotFound when the session has no
// active encounter.
func (r *EncounterRepository) ActiveBySession(ctx context.Context, sessionID string) (*encounter.Encounter, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT state FROM encounters
		WHERE session_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		sessionID, encounter.StatusActive,
	))
}

// GetByID returns the encounter with the given id, or encounter.ErrNotFound.
func (r *EncounterRepository) GetByID(ctx context.Context, id string) (*encounter.Encounter, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT state FROM encounters WHERE id = $1`,
		id,
	))
}

func (r *EncounterRepository) scanOne(row pgx.Row) (*encounter.Encounter, error) {
	var state []byte
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, encounter.ErrNotFound
		}
		return nil, fmt.Errorf("querying encounter: %w", err)
	}
	var e encounter.Encounter
	if err := json.Unmarshal(state, &e); err != nil {
		return nil, fmt.Errorf("decoding encounter state: %w", err)
	}
	return &e, nil
}
