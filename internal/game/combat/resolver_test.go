package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// scriptedSource returns a fixed sequence of Intn values. A die face f is
// scripted as f-1.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) Intn(n int) int {
	if s.next >= len(s.values) {
		panic("scriptedSource exhausted")
	}
	v := s.values[s.next]
	s.next++
	return v % n
}

func newResolver(faces ...int) *combat.Resolver {
	values := make([]int, len(faces))
	for i, f := range faces {
		values[i] = f - 1
	}
	roller := dice.NewLoggedRoller(&scriptedSource{values: values}, zap.NewNop())
	return combat.NewResolver(roller, zap.NewNop())
}

func testPlayer() *combat.Player {
	return &combat.Player{
		Combatant: combat.Combatant{
			ID: combat.PlayerID, Name: "Hero",
			CurrentHP: 20, MaxHP: 20, AC: 15, Disposition: combat.DispositionPlayer,
		},
		Level:               5, // proficiency +3
		Stats:               map[combat.Stat]int{combat.StatStr: 16, combat.StatDex: 12, combat.StatInt: 18},
		WeaponProficiencies: []string{"longsword"},
		SpellcastingStat:    combat.StatInt,
		Features:            []string{"divine_smite"},
	}
}

func longsword() *combat.Ability {
	return &combat.Ability{
		ID: "longsword", Name: "Longsword", Type: combat.AbilityWeapon,
		Stat: combat.StatStr, DamageDice: "1d8", DamageType: "slashing",
		RangeFeet: 5, RequiresTarget: true,
	}
}

func goblin() *combat.Combatant {
	return &combat.Combatant{
		ID: "goblin-1", Name: "Goblin", CurrentHP: 7, MaxHP: 7, AC: 14,
		Disposition: combat.DispositionHostile, AttackBonus: 4,
		DamageDice: "1d6+2", SaveBonus: 1,
	}
}

func boardFor(ids ...string) *combat.Board {
	b := combat.NewBoard(10, 10)
	for i, id := range ids {
		b.Positions[id] = grid.Position{Row: 0, Col: i}
	}
	return b
}

// TestResolve_WeaponHit: total 15 vs AC 14 is a hit with stat modifier added
// to damage as a flat bonus.
func TestResolve_WeaponHit(t *testing.T) {
	// d20 face 9 → 9 + 3 (str) + 3 (prof) = 15 vs AC 14; damage die face 5 → 5+3.
	r := newResolver(9, 5)
	player := testPlayer()
	target := goblin()

	result, err := r.Resolve(player, longsword(), target, boardFor(combat.PlayerID, target.ID), nil)
	require.NoError(t, err)
	assert.Equal(t, combat.ResultAttack, result.Kind)
	assert.Equal(t, 15, result.AttackTotal)
	assert.True(t, result.Hit)
	assert.False(t, result.Crit)
	assert.Equal(t, 8, result.Damage, "1d8 roll of 5 plus str modifier 3")
	assert.Equal(t, 7, target.CurrentHP, "resolver must not mutate the target")
}

// TestResolve_WeaponMiss: total below AC misses and rolls no damage.
func TestResolve_WeaponMiss(t *testing.T) {
	// d20 face 5 → 5+3+3 = 11 vs AC 14.
	r := newResolver(5)
	target := goblin()

	result, err := r.Resolve(testPlayer(), longsword(), target, boardFor(combat.PlayerID, target.ID), nil)
	require.NoError(t, err)
	assert.False(t, result.Hit)
	assert.Zero(t, result.Damage)
}

// TestResolve_Natural1AlwaysMisses: a natural 1 misses even when the
// modified total would clear the AC by a wide margin.
func TestResolve_Natural1AlwaysMisses(t *testing.T) {
	r := newResolver(1)
	player := testPlayer()
	ability := longsword()
	ability.AttackBonus = 20 // total would be 1+3+3+20 = 27 vs AC 14
	target := goblin()

	result, err := r.Resolve(player, ability, target, boardFor(combat.PlayerID, target.ID), nil)
	require.NoError(t, err)
	assert.Equal(t, 27, result.AttackTotal)
	assert.False(t, result.Hit, "natural 1 must miss regardless of modifiers")
}

// TestResolve_Natural20AlwaysHitsAndCrits: a natural 20 hits any AC and
// doubles the damage dice but not the flat stat bonus.
func TestResolve_Natural20AlwaysHitsAndCrits(t *testing.T) {
	// d20 face 20; crit doubles 1d8 → 2d8; faces 4 and 6 → 10 + 3 str.
	r := newResolver(20, 4, 6)
	target := goblin()
	target.AC = 30

	result, err := r.Resolve(testPlayer(), longsword(), target, boardFor(combat.PlayerID, target.ID), nil)
	require.NoError(t, err)
	assert.True(t, result.Hit, "natural 20 must hit regardless of AC")
	assert.True(t, result.Crit)
	assert.Len(t, result.DamageRolls, 2)
	assert.Equal(t, 13, result.Damage, "2d8 (4+6) + str 3; the flat bonus is not doubled")
}

// TestResolve_BonusDamageRiders: dice riders double on crit, flat riders
// never do, and riders for features the actor lacks are skipped silently.
func TestResolve_BonusDamageRiders(t *testing.T) {
	ability := longsword()
	ability.BonusDamage = []combat.BonusDamage{
		{Feature: "divine_smite", Dice: "2d8"},
		{Feature: "great_weapon_fighting", Flat: 2}, // player lacks this feature
	}

	// Crit: 2d8 base (3,3) then smite doubled to 4d8 (2,2,2,2).
	r := newResolver(20, 3, 3, 2, 2, 2, 2)
	result, err := r.Resolve(testPlayer(), ability, goblin(), boardFor(combat.PlayerID, "goblin-1"), nil)
	require.NoError(t, err)
	assert.True(t, result.Crit)
	// 2d8(6) + str 3 + 4d8(8); the unpossessed flat rider contributes nothing.
	assert.Equal(t, 17, result.Damage)
	assert.Equal(t, []string{"divine_smite"}, result.BonusFeatures)
}

// TestResolve_SpellAttackUsesSpellcastingModifier: spell attacks add the
// spellcasting modifier and proficiency with no weapon proficiency check.
func TestResolve_SpellAttack(t *testing.T) {
	firebolt := &combat.Ability{
		ID: "firebolt", Name: "Fire Bolt", Type: combat.AbilityCantrip,
		DamageDice: "1d10", DamageType: "fire", RangeFeet: 120, RequiresTarget: true,
	}
	// d20 face 8 → 8 + 4 (int) + 3 (prof) = 15 vs AC 14; damage face 7.
	r := newResolver(8, 7)
	result, err := r.Resolve(testPlayer(), firebolt, goblin(), boardFor(combat.PlayerID, "goblin-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, 15, result.AttackTotal)
	assert.True(t, result.Hit)
	assert.Equal(t, 7, result.Damage, "spell damage is dice-only, no stat bonus")
}

// TestResolve_SaveEffect: the effect lands iff the target's save fails.
func TestResolve_SaveEffect(t *testing.T) {
	hex := &combat.Ability{
		ID: "sacred_flame", Name: "Sacred Flame", Type: combat.AbilityCantrip,
		DamageDice: "1d8", SaveEffect: true, RequiresTarget: true, RangeFeet: 60,
	}

	// DC = 8 + 4 (int) + 3 (prof) = 15. Save face 12 + bonus 1 = 13: fail; damage face 6.
	r := newResolver(12, 6)
	result, err := r.Resolve(testPlayer(), hex, goblin(), boardFor(combat.PlayerID, "goblin-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, combat.ResultSave, result.Kind)
	assert.Equal(t, 15, result.SaveDC)
	assert.False(t, result.TargetSaved)
	assert.True(t, result.Landed())
	assert.Equal(t, 6, result.Damage)

	// Save face 19 + 1 = 20: success, no damage rolled.
	r = newResolver(19)
	result, err = r.Resolve(testPlayer(), hex, goblin(), boardFor(combat.PlayerID, "goblin-1"), nil)
	require.NoError(t, err)
	assert.True(t, result.TargetSaved)
	assert.False(t, result.Landed())
	assert.Zero(t, result.Damage)
}

// TestResolve_NonTargetedAction returns a no-check result immediately.
func TestResolve_NonTargetedAction(t *testing.T) {
	dodge := &combat.Ability{ID: "dodge", Name: "Dodge", Type: combat.AbilityAction}
	r := newResolver()
	result, err := r.Resolve(testPlayer(), dodge, nil, combat.NewBoard(10, 10), nil)
	require.NoError(t, err)
	assert.Equal(t, combat.ResultNone, result.Kind)
	assert.True(t, result.Landed())
}

// TestResolve_MissingTargetIsValidationError: targeted abilities without a
// target fail before any rolls.
func TestResolve_MissingTargetIsValidationError(t *testing.T) {
	r := newResolver()
	_, err := r.Resolve(testPlayer(), longsword(), nil, combat.NewBoard(10, 10), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, combat.ErrValidation)
}

// TestResolve_OutOfRangeIsImpossible: a melee swing across the map is
// rejected as an impossible action.
func TestResolve_OutOfRangeIsImpossible(t *testing.T) {
	b := combat.NewBoard(10, 10)
	b.Positions[combat.PlayerID] = grid.Position{Row: 0, Col: 0}
	b.Positions["goblin-1"] = grid.Position{Row: 9, Col: 9}

	r := newResolver()
	_, err := r.Resolve(testPlayer(), longsword(), goblin(), b, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, combat.ErrImpossibleAction)
}

// TestResolveNPCAttack: NPC basic attack uses the flat attack bonus and
// applies the same natural-roll override.
func TestResolveNPCAttack(t *testing.T) {
	player := testPlayer() // AC 15
	npc := goblin()        // +4 to hit, 1d6+2 damage
	b := boardFor(combat.PlayerID, npc.ID)

	// Face 12 → 12+4 = 16 vs AC 15: hit; damage face 4 → 4+2.
	r := newResolver(12, 4)
	result, err := r.ResolveNPCAttack(npc, player, b)
	require.NoError(t, err)
	assert.True(t, result.Hit)
	assert.Equal(t, 6, result.Damage)

	// Natural 1 always misses.
	r = newResolver(1)
	result, err = r.ResolveNPCAttack(npc, player, b)
	require.NoError(t, err)
	assert.False(t, result.Hit)
}
