// Package combat implements ability-use resolution for the arena engine:
// attack rolls, saving throws, positional advantage, and area effects.
package combat

// Disposition classifies how a combatant relates to the player.
type Disposition string

const (
	DispositionHostile  Disposition = "hostile"
	DispositionFriendly Disposition = "friendly"
	DispositionNeutral  Disposition = "neutral"
	DispositionPlayer   Disposition = "player"
)

// PlayerID is the reserved combatant id for the player, always first in turn order.
const PlayerID = "player"

// Combatant represents one participant in an encounter.
type Combatant struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CurrentHP   int         `json:"currentHp"`
	MaxHP       int         `json:"maxHp"`
	AC          int         `json:"ac"`
	Disposition Disposition `json:"disposition"`
	// AttackBonus is the flat bonus added to this combatant's attack rolls.
	AttackBonus int `json:"attackBonus"`
	// DamageDice is the damage expression for this combatant's basic attack, e.g. "1d6+2".
	DamageDice string `json:"damageDice"`
	// SaveBonus is added to this combatant's saving throws.
	SaveBonus int `json:"saveBonus"`
}

// IsAlive reports whether the combatant has hit points remaining.
func (c *Combatant) IsAlive() bool { return c.CurrentHP > 0 }

// IsHostile reports whether the combatant opposes the player.
func (c *Combatant) IsHostile() bool { return c.Disposition == DispositionHostile }

// ApplyDamage reduces CurrentHP by amount, clamping at zero.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= CurrentHP <= MaxHP.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal raises CurrentHP by amount, clamping at MaxHP.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= CurrentHP <= MaxHP.
func (c *Combatant) Heal(amount int) {
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
}

// AbilityMod computes the standard ability modifier: floor((score - 10) / 2).
//
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// ProficiencyBonus returns the level-derived proficiency bonus: 2 + (level-1)/4.
//
// Precondition: level >= 1.
// Postcondition: Returns >= 2.
func ProficiencyBonus(level int) int {
	return 2 + (level-1)/4
}

// SaveDC returns the difficulty class for an effect: 8 + ability modifier +
// proficiency bonus.
func SaveDC(abilityMod, proficiency int) int {
	return 8 + abilityMod + proficiency
}
