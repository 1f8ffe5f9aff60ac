// Package events provides the combat event types and the in-process
// publish/subscribe bus that delivers them to live stream subscribers.
package events

import "encoding/json"

// Type tags a combat event frame.
type Type string

const (
	TypeRoundStart  Type = "round_start"
	TypePlayerTurn  Type = "player_turn"
	TypeNPCTurn     Type = "npc_turn"
	TypeRoundEnd    Type = "round_end"
	TypeStateUpdate Type = "state_update"
	TypePlayerDead  Type = "player_dead"
	TypeCombatEnd   Type = "combat_end"
	TypeError       Type = "error"
)

// Terminal reports whether this event type signals subscribers to close
// their own stream. The bus never forces disconnection.
func (t Type) Terminal() bool {
	return t == TypeCombatEnd || t == TypePlayerDead
}

// Event is one combat event frame. Only the fields relevant to the tagged
// type are populated; the whole struct marshals to a single JSON frame on
// the streaming endpoint.
type Event struct {
	Type        Type   `json:"type"`
	EncounterID string `json:"encounterId"`
	Round       int    `json:"round,omitempty"`

	// Actor/target context for turn events.
	ActorID   string `json:"actorId,omitempty"`
	ActorName string `json:"actorName,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
	Damage    int    `json:"damage,omitempty"`

	// Result carries the full mechanical result for turn events.
	Result json.RawMessage `json:"result,omitempty"`
	// Narration is the best-effort flavor text for the phase, if any.
	Narration string `json:"narration,omitempty"`
	// Message carries human-readable detail for error events.
	Message string `json:"message,omitempty"`

	// Encounter carries the post-phase encounter snapshot for state updates.
	Encounter json.RawMessage `json:"encounter,omitempty"`
}
