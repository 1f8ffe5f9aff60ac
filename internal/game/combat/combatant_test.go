package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// TestApplyDamage_ClampsAtZero verifies HP never goes negative.
func TestApplyDamage_ClampsAtZero(t *testing.T) {
	c := combat.Combatant{CurrentHP: 5, MaxHP: 10}
	c.ApplyDamage(8)
	assert.Equal(t, 0, c.CurrentHP)
	assert.False(t, c.IsAlive())
}

// TestHeal_ClampsAtMax verifies HP never exceeds MaxHP.
func TestHeal_ClampsAtMax(t *testing.T) {
	c := combat.Combatant{CurrentHP: 8, MaxHP: 10}
	c.Heal(7)
	assert.Equal(t, 10, c.CurrentHP)
}

// TestHPClamp_Property: any interleaving of damage and healing keeps HP in [0, MaxHP].
func TestHPClamp_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 100).Draw(rt, "maxHP")
		c := combat.Combatant{CurrentHP: maxHP, MaxHP: maxHP}
		steps := rapid.SliceOfN(rapid.IntRange(-30, 30), 0, 50).Draw(rt, "steps")
		for _, s := range steps {
			if s < 0 {
				c.ApplyDamage(-s)
			} else {
				c.Heal(s)
			}
			assert.GreaterOrEqual(rt, c.CurrentHP, 0)
			assert.LessOrEqual(rt, c.CurrentHP, maxHP)
		}
	})
}

// TestAbilityMod verifies floor division for scores below and above 10.
func TestAbilityMod(t *testing.T) {
	cases := map[int]int{1: -5, 8: -1, 9: -1, 10: 0, 11: 0, 12: 1, 15: 2, 16: 3, 20: 5}
	for score, want := range cases {
		assert.Equal(t, want, combat.AbilityMod(score), "score %d", score)
	}
}

// TestProficiencyBonus verifies the level-derived progression.
func TestProficiencyBonus(t *testing.T) {
	cases := map[int]int{1: 2, 4: 2, 5: 3, 8: 3, 9: 4, 13: 5, 17: 6}
	for level, want := range cases {
		assert.Equal(t, want, combat.ProficiencyBonus(level), "level %d", level)
	}
}

// TestSaveDC verifies the 8 + modifier + proficiency formula.
func TestSaveDC(t *testing.T) {
	assert.Equal(t, 15, combat.SaveDC(4, 3))
	assert.Equal(t, 10, combat.SaveDC(0, 2))
}

// TestPlayer_StatAccessors covers stat modifiers, proficiency, and features.
func TestPlayer_StatAccessors(t *testing.T) {
	p := combat.Player{
		Level:               5,
		Stats:               map[combat.Stat]int{combat.StatStr: 16, combat.StatInt: 18},
		WeaponProficiencies: []string{"longsword"},
		SpellcastingStat:    combat.StatInt,
		Features:            []string{"divine_smite"},
	}
	assert.Equal(t, 3, p.StatMod(combat.StatStr))
	assert.Equal(t, 0, p.StatMod(combat.StatCha), "absent stat defaults to modifier 0")
	assert.Equal(t, 3, p.Proficiency())
	assert.True(t, p.ProficientWith("longsword"))
	assert.False(t, p.ProficientWith("glaive"))
	assert.True(t, p.HasFeature("divine_smite"))
	assert.False(t, p.HasFeature("sneak_attack"))
	assert.Equal(t, 15, p.SpellSaveDC())
}

// TestAbility_Validate covers definition invariants.
func TestAbility_Validate(t *testing.T) {
	valid := combat.Ability{
		ID: "longsword", Name: "Longsword", Type: combat.AbilityWeapon,
		Stat: combat.StatStr, DamageDice: "1d8", RequiresTarget: true, RangeFeet: 5,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.DamageDice = "1dx"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Type = "melee"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.BonusDamage = []combat.BonusDamage{{Feature: ""}}
	assert.Error(t, bad.Validate())

	bad = valid
	bad.ID = ""
	assert.Error(t, bad.Validate())
}
