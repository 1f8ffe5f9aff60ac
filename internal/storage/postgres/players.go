package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/encounter"
)

// PlayerRepository implements encounter.PlayerStore. Player characters are
// stored as JSONB state documents keyed by character id.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Load returns the player by character id.
//
// Postcondition: Returns encounter.ErrNotFound when no player exists; the
// returned player's combatant id is combat.PlayerID.
func (r *PlayerRepository) Load(ctx context.Context, characterID string) (*combat.Player, error) {
	var state []byte
	err := r.db.QueryRow(ctx, `
		SELECT state FROM players WHERE character_id = $1`,
		characterID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, encounter.ErrNotFound
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}

	var p combat.Player
	if err := json.Unmarshal(state, &p); err != nil {
		return nil, fmt.Errorf("decoding player state: %w", err)
	}
	p.ID = combat.PlayerID
	return &p, nil
}

// Save upserts the player's state under characterID.
func (r *PlayerRepository) Save(ctx context.Context, characterID string, p *combat.Player) error {
	state, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding player state: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO players (character_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (character_id) DO UPDATE
		SET state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at`,
		characterID, state, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	return nil
}
