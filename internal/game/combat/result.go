package combat

import (
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// ResultKind identifies how a mechanical result was produced.
type ResultKind string

const (
	// ResultAttack was resolved with an attack roll against AC.
	ResultAttack ResultKind = "attack"
	// ResultSave was resolved by the target's saving throw against a DC.
	ResultSave ResultKind = "save"
	// ResultNone is a non-targeted action with no check.
	ResultNone ResultKind = "none"
)

// MechanicalResult is the full mechanical outcome of one single-target
// ability use. It carries every roll made so the caller can narrate or
// audit the action.
type MechanicalResult struct {
	Kind        ResultKind `json:"kind"`
	ActorID     string     `json:"actorId"`
	AbilityID   string     `json:"abilityId"`
	AbilityName string     `json:"abilityName"`
	TargetID    string     `json:"targetId,omitempty"`

	// Attack-roll fields.
	Mode        dice.AdvantageMode `json:"-"`
	ModeName    string             `json:"mode,omitempty"`
	AttackRolls []int              `json:"attackRolls,omitempty"`
	NaturalRoll int                `json:"naturalRoll,omitempty"`
	AttackTotal int                `json:"attackTotal,omitempty"`
	TargetAC    int                `json:"targetAc,omitempty"`
	Hit         bool               `json:"hit"`
	Crit        bool               `json:"crit"`

	// Save fields.
	SaveDC         int  `json:"saveDc,omitempty"`
	TargetSaveRoll int  `json:"targetSaveRoll,omitempty"`
	TargetSaved    bool `json:"targetSaved,omitempty"`

	// Damage fields.
	Damage      int    `json:"damage"`
	DamageRolls []int  `json:"damageRolls,omitempty"`
	DamageType  string `json:"damageType,omitempty"`
	// BonusFeatures lists the rider features that contributed damage.
	BonusFeatures []string `json:"bonusFeatures,omitempty"`
}

// Landed reports whether the ability had mechanical effect: an attack hit,
// a save effect the target failed to save against, or a no-check action.
func (r MechanicalResult) Landed() bool {
	switch r.Kind {
	case ResultAttack:
		return r.Hit
	case ResultSave:
		return !r.TargetSaved
	default:
		return true
	}
}

// AOETargetOutcome records one target's independent save against a shared
// area damage roll.
type AOETargetOutcome struct {
	TargetID string `json:"targetId"`
	SaveRoll int    `json:"saveRoll"`
	Saved    bool   `json:"saved"`
	// Damage is the amount this target takes: the shared total on a failed
	// save, half (floored) on a success, 0 for non-damaging effects.
	Damage int `json:"damage"`
}

// AOEResult is the outcome of one area-of-effect ability use. Damage dice
// are rolled exactly once; every target is evaluated against that single
// rolled total.
type AOEResult struct {
	ActorID     string `json:"actorId"`
	AbilityID   string `json:"abilityId"`
	AbilityName string `json:"abilityName"`

	SaveDC      int    `json:"saveDc"`
	DamageRolls []int  `json:"damageRolls,omitempty"`
	DamageTotal int    `json:"damageTotal"`
	DamageType  string `json:"damageType,omitempty"`

	Targets []AOETargetOutcome `json:"targets"`
	// Cells is the affected-cell set for UI and geometry validation.
	Cells []grid.Position `json:"cells"`
}
