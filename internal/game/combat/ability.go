package combat

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// AbilityType classifies how an ability resolves.
type AbilityType string

const (
	AbilityWeapon  AbilityType = "weapon"
	AbilityCantrip AbilityType = "cantrip"
	AbilitySpell   AbilityType = "spell"
	AbilityRacial  AbilityType = "racial"
	// AbilityAction covers non-targeted turn actions such as dodge or dash.
	AbilityAction AbilityType = "action"
)

// Valid reports whether t is a recognized ability type.
func (t AbilityType) Valid() bool {
	switch t {
	case AbilityWeapon, AbilityCantrip, AbilitySpell, AbilityRacial, AbilityAction:
		return true
	default:
		return false
	}
}

// BonusDamage is a typed extra-damage rider attached to an ability, applied
// only when the actor possesses Feature. The dice portion is doubled on a
// critical hit; the flat portion never is.
type BonusDamage struct {
	Feature string `yaml:"feature" json:"feature"`
	Dice    string `yaml:"dice" json:"dice,omitempty"`
	Flat    int    `yaml:"flat" json:"flat,omitempty"`
}

// Ability defines one usable action, loaded from content YAML.
type Ability struct {
	ID   string      `yaml:"id" json:"id"`
	Name string      `yaml:"name" json:"name"`
	Type AbilityType `yaml:"type" json:"type"`
	// Stat is the governing ability score. Empty for spells means the
	// player's spellcasting stat is used.
	Stat Stat `yaml:"stat" json:"stat,omitempty"`
	// DamageDice is the damage expression, e.g. "1d8"; empty for no damage.
	DamageDice string `yaml:"damage_dice" json:"damageDice,omitempty"`
	DamageType string `yaml:"damage_type" json:"damageType,omitempty"`
	// AttackBonus is an item-level flat bonus to the attack roll (e.g. +1 weapon).
	AttackBonus int `yaml:"attack_bonus" json:"attackBonus,omitempty"`
	// RangeFeet is the maximum reach; 0 means unlimited/self.
	RangeFeet int `yaml:"range_feet" json:"rangeFeet,omitempty"`
	// SaveEffect marks abilities resolved by a target saving throw rather
	// than an attack roll.
	SaveEffect bool `yaml:"save_effect" json:"saveEffect,omitempty"`
	// RequiresTarget marks single-target abilities that must name a target.
	RequiresTarget bool `yaml:"requires_target" json:"requiresTarget"`
	// AOE declares area geometry; nil for single-target abilities.
	AOE *grid.AOESpec `yaml:"aoe" json:"aoe,omitempty"`
	// BonusDamage lists typed extra-damage riders.
	BonusDamage []BonusDamage `yaml:"bonus_damage" json:"bonusDamage,omitempty"`
}

// IsAOE reports whether the ability affects an area rather than one target.
func (a *Ability) IsAOE() bool { return a.AOE != nil }

// Validate checks the ability definition's invariants.
//
// Postcondition: Returns nil iff id/name/type are set, all dice expressions
// parse, and any AOE spec validates.
func (a *Ability) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("ability: id must not be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("ability %q: name must not be empty", a.ID)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("ability %q: unknown type %q", a.ID, a.Type)
	}
	if a.Stat != "" && !a.Stat.Valid() {
		return fmt.Errorf("ability %q: unknown stat %q", a.ID, a.Stat)
	}
	if a.DamageDice != "" {
		if _, err := dice.Parse(a.DamageDice); err != nil {
			return fmt.Errorf("ability %q: %w", a.ID, err)
		}
	}
	if a.RangeFeet < 0 {
		return fmt.Errorf("ability %q: range_feet must be >= 0", a.ID)
	}
	if a.AOE != nil {
		if err := a.AOE.Validate(); err != nil {
			return fmt.Errorf("ability %q: %w", a.ID, err)
		}
		if a.RequiresTarget {
			return fmt.Errorf("ability %q: aoe abilities must not require a single target", a.ID)
		}
	}
	for _, b := range a.BonusDamage {
		if b.Feature == "" {
			return fmt.Errorf("ability %q: bonus damage rider missing feature", a.ID)
		}
		if b.Dice == "" && b.Flat == 0 {
			return fmt.Errorf("ability %q: bonus damage rider %q has no dice and no flat bonus", a.ID, b.Feature)
		}
		if b.Dice != "" {
			if _, err := dice.Parse(b.Dice); err != nil {
				return fmt.Errorf("ability %q: rider %q: %w", a.ID, b.Feature, err)
			}
		}
	}
	if a.Type == AbilityWeapon && a.DamageDice == "" {
		return fmt.Errorf("ability %q: weapon abilities require damage_dice", a.ID)
	}
	return nil
}
