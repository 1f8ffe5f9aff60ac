package encounter

import (
	"context"
	"errors"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// ErrNotFound is returned when an encounter or player lookup yields nothing.
var ErrNotFound = errors.New("not found")

// Store persists encounters. Save is called after every orchestration phase,
// before that phase's event is emitted, so subscribers can always trust the
// store to reflect what they observe.
type Store interface {
	// Save upserts the encounter.
	Save(ctx context.Context, e *Encounter) error
	// ActiveBySession returns the single active encounter for the session,
	// or ErrNotFound.
	ActiveBySession(ctx context.Context, sessionID string) (*Encounter, error)
	// GetByID returns the encounter with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Encounter, error)
}

// PlayerStore loads and saves the player character backing a session. The
// character id is the storage key; the returned player's combatant id is
// always combat.PlayerID so board lookups resolve.
type PlayerStore interface {
	// Load returns the player by character id, or ErrNotFound.
	Load(ctx context.Context, characterID string) (*combat.Player, error)
	// Save persists the player's mutable combat state (HP) under characterID.
	Save(ctx context.Context, characterID string, p *combat.Player) error
}

// AbilityProvider resolves ability ids to definitions, typically backed by
// the content registry loaded at startup.
type AbilityProvider interface {
	Ability(id string) (*combat.Ability, bool)
}
