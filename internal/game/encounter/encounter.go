// Package encounter holds the combat encounter aggregate and the turn
// orchestrator that drives the player-action → NPC-turns → round-end state
// machine.
package encounter

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// Status is the encounter lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// CombatStats accumulates per-player totals across an encounter.
type CombatStats struct {
	DamageDealt int `json:"damageDealt"`
	DamageTaken int `json:"damageTaken"`
	Kills       int `json:"kills"`
	Crits       int `json:"crits"`
	Rounds      int `json:"rounds"`
}

// Encounter is the aggregate root for one active combat.
//
// Invariants: TurnOrder[0] == combat.PlayerID; 0 <= CurrentTurnIndex <
// len(TurnOrder); Round >= 1 and only increases at a full round boundary;
// at most one active encounter exists per session.
type Encounter struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Status    Status `json:"status"`
	Round     int    `json:"round"`
	// TurnOrder lists combatant ids in acting order, the player first.
	TurnOrder        []string `json:"turnOrder"`
	CurrentTurnIndex int      `json:"currentTurnIndex"`
	// NPCs holds every NPC combatant, living and dead, for the encounter's
	// lifetime; dead NPCs drop out of TurnOrder, not out of this list.
	NPCs []*combat.Combatant `json:"npcs"`
	// Positions maps combatant id to grid cell.
	Positions map[string]grid.Position `json:"positions"`
	// Conditions maps combatant id to active combat conditions.
	Conditions map[string][]combat.Condition `json:"conditions,omitempty"`
	Stats      CombatStats                   `json:"combatStats"`
	GridRows   int                           `json:"gridRows"`
	GridCols   int                           `json:"gridCols"`
	CreatedAt  time.Time                     `json:"createdAt"`
	UpdatedAt  time.Time                     `json:"updatedAt"`
}

// New creates an active round-1 encounter for the session.
//
// Precondition: sessionID must be non-empty; rows and cols must be > 0;
// every NPC must have a position in positions.
// Postcondition: TurnOrder is the player followed by npcs in given order;
// CurrentTurnIndex == 0; Round == 1; Status == StatusActive.
func New(sessionID string, npcs []*combat.Combatant, positions map[string]grid.Position, rows, cols int) *Encounter {
	order := make([]string, 0, len(npcs)+1)
	order = append(order, combat.PlayerID)
	for _, n := range npcs {
		order = append(order, n.ID)
	}
	now := time.Now().UTC()
	return &Encounter{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Status:     StatusActive,
		Round:      1,
		TurnOrder:  order,
		NPCs:       npcs,
		Positions:  positions,
		Conditions: make(map[string][]combat.Condition),
		GridRows:   rows,
		GridCols:   cols,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NPC returns the NPC with the given id, or nil.
func (e *Encounter) NPC(id string) *combat.Combatant {
	for _, n := range e.NPCs {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// LivingNPCs returns every NPC with HP remaining, hostile or not.
func (e *Encounter) LivingNPCs() []*combat.Combatant {
	var alive []*combat.Combatant
	for _, n := range e.NPCs {
		if n.IsAlive() {
			alive = append(alive, n)
		}
	}
	return alive
}

// SurvivingHostiles returns hostile NPCs with HP remaining.
//
// Postcondition: every returned combatant IsHostile and IsAlive.
func (e *Encounter) SurvivingHostiles() []*combat.Combatant {
	var out []*combat.Combatant
	for _, n := range e.NPCs {
		if n.IsHostile() && n.IsAlive() {
			out = append(out, n)
		}
	}
	return out
}

// FriendlyIDs returns ids of living friendly NPCs, used for flanking.
func (e *Encounter) FriendlyIDs() []string {
	var out []string
	for _, n := range e.NPCs {
		if n.Disposition == combat.DispositionFriendly && n.IsAlive() {
			out = append(out, n.ID)
		}
	}
	return out
}

// RebuildTurnOrder resets the order to the player followed by surviving
// hostiles, dropping dead and non-hostile NPCs, and rewinds the turn index.
//
// Postcondition: TurnOrder[0] == combat.PlayerID; CurrentTurnIndex == 0.
func (e *Encounter) RebuildTurnOrder() {
	order := []string{combat.PlayerID}
	for _, n := range e.SurvivingHostiles() {
		order = append(order, n.ID)
	}
	e.TurnOrder = order
	e.CurrentTurnIndex = 0
}

// Board materializes the read-only positional view the resolvers consult.
func (e *Encounter) Board() *combat.Board {
	b := combat.NewBoard(e.GridRows, e.GridCols)
	for id, pos := range e.Positions {
		b.Positions[id] = pos
	}
	for id, conds := range e.Conditions {
		b.Conditions[id] = append([]combat.Condition(nil), conds...)
	}
	return b
}

// Validate checks the aggregate invariants.
//
// Postcondition: Returns nil iff all invariants hold.
func (e *Encounter) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("encounter: id must not be empty")
	}
	if e.SessionID == "" {
		return fmt.Errorf("encounter %s: session id must not be empty", e.ID)
	}
	if e.Status != StatusActive && e.Status != StatusCompleted {
		return fmt.Errorf("encounter %s: unknown status %q", e.ID, e.Status)
	}
	if e.Round < 1 {
		return fmt.Errorf("encounter %s: round must be >= 1, got %d", e.ID, e.Round)
	}
	if len(e.TurnOrder) == 0 || e.TurnOrder[0] != combat.PlayerID {
		return fmt.Errorf("encounter %s: turn order must start with %q", e.ID, combat.PlayerID)
	}
	if e.CurrentTurnIndex < 0 || e.CurrentTurnIndex >= len(e.TurnOrder) {
		return fmt.Errorf("encounter %s: turn index %d out of range [0,%d)", e.ID, e.CurrentTurnIndex, len(e.TurnOrder))
	}
	for _, n := range e.NPCs {
		if n.CurrentHP < 0 || n.CurrentHP > n.MaxHP {
			return fmt.Errorf("encounter %s: npc %q hp %d outside [0,%d]", e.ID, n.ID, n.CurrentHP, n.MaxHP)
		}
	}
	return nil
}
