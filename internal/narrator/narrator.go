// Package narrator turns mechanical combat results into short flavor text.
// Narration is strictly best-effort: it runs after the encounter state is
// persisted, and any failure degrades to a deterministic template line.
package narrator

import "context"

// Scene is the mechanical summary a narrator renders. It carries no dice
// internals, only the outcome-level facts a storyteller needs.
type Scene struct {
	Phase       string // "player_turn", "npc_turn", "round_end", "combat_end", "player_dead"
	ActorName   string
	TargetName  string
	AbilityName string
	Hit         bool
	Crit        bool
	Saved       bool
	SaveBased   bool
	Damage      int
	TargetsHit  int // AOE only; 0 for single-target scenes
	Round       int
	TargetDown  bool
}

// Narrator renders a scene into one or two sentences of flavor text.
type Narrator interface {
	Narrate(ctx context.Context, scene Scene) (string, error)
}
