package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

func fireball() *combat.Ability {
	return &combat.Ability{
		ID: "fireball", Name: "Fireball", Type: combat.AbilitySpell,
		DamageDice: "8d6", DamageType: "fire", RangeFeet: 150, SaveEffect: true,
		AOE: &grid.AOESpec{Shape: grid.ShapeSphere, SizeFeet: 20},
	}
}

// TestResolveAOE_SharedRollIndependentSaves: the damage dice are rolled
// exactly once; a saving target takes half floored, a failing target full.
func TestResolveAOE_SharedRollIndependentSaves(t *testing.T) {
	// Shared 8d6: faces 4,3,4,3,4,3,4,3 = 28. Then three saves vs DC 15
	// (int +4, prof +3): face 16+1=17 save, face 5+1=6 fail, face 14+0=14 fail.
	r := newResolver(4, 3, 4, 3, 4, 3, 4, 3, 16, 5, 14)
	player := testPlayer()

	targets := []*combat.Combatant{
		{ID: "g1", Name: "Goblin 1", CurrentHP: 30, MaxHP: 30, SaveBonus: 1, Disposition: combat.DispositionHostile},
		{ID: "g2", Name: "Goblin 2", CurrentHP: 30, MaxHP: 30, SaveBonus: 1, Disposition: combat.DispositionHostile},
		{ID: "g3", Name: "Goblin 3", CurrentHP: 30, MaxHP: 30, SaveBonus: 0, Disposition: combat.DispositionHostile},
	}

	result, err := r.ResolveAOE(player, fireball(), targets, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, result.SaveDC)
	assert.Equal(t, 28, result.DamageTotal)
	require.Len(t, result.Targets, 3)

	assert.True(t, result.Targets[0].Saved)
	assert.Equal(t, 14, result.Targets[0].Damage, "save halves the shared total, floored")
	assert.False(t, result.Targets[1].Saved)
	assert.Equal(t, 28, result.Targets[1].Damage)
	assert.False(t, result.Targets[2].Saved)
	assert.Equal(t, 28, result.Targets[2].Damage)

	for _, tgt := range targets {
		assert.Equal(t, 30, tgt.CurrentHP, "resolver must not mutate targets")
	}
}

// TestResolveAOE_HalfDamageFloors: odd shared totals floor on a save.
func TestResolveAOE_HalfDamageFloors(t *testing.T) {
	bolt := fireball()
	bolt.DamageDice = "1d6"
	// Damage face 5 = 5; save face 20 always saves.
	r := newResolver(5, 20)
	result, err := r.ResolveAOE(testPlayer(), bolt, []*combat.Combatant{{ID: "g1", SaveBonus: 0}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, result.DamageTotal)
	assert.Equal(t, 2, result.Targets[0].Damage)
}

// TestResolveAOE_NonDamagingStillReportsSaves: effects with no damage roll
// report per-target saved status with zero damage.
func TestResolveAOE_NonDamagingStillReportsSaves(t *testing.T) {
	web := fireball()
	web.DamageDice = ""
	r := newResolver(3, 18)
	result, err := r.ResolveAOE(testPlayer(), web, []*combat.Combatant{
		{ID: "g1", SaveBonus: 0},
		{ID: "g2", SaveBonus: 0},
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, result.DamageTotal)
	assert.False(t, result.Targets[0].Saved)
	assert.True(t, result.Targets[1].Saved)
	assert.Zero(t, result.Targets[0].Damage)
	assert.Zero(t, result.Targets[1].Damage)
}

// TestResolveAOE_SingleRoll_Property: however many targets, all failing
// targets observe the same damage and all saving targets exactly half.
func TestResolveAOE_SingleRoll_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "targets")
		faces := []int{6, 1, 4, 2, 5, 3, 6, 2} // shared 8d6 = 29
		for i := 0; i < n; i++ {
			faces = append(faces, rapid.IntRange(1, 20).Draw(rt, "save"))
		}

		r := newResolver(faces...)
		var targets []*combat.Combatant
		for i := 0; i < n; i++ {
			targets = append(targets, &combat.Combatant{ID: "t", SaveBonus: 0})
		}

		result, err := r.ResolveAOE(testPlayer(), fireball(), targets, nil)
		require.NoError(rt, err)
		for _, out := range result.Targets {
			if out.Saved {
				assert.Equal(rt, result.DamageTotal/2, out.Damage)
			} else {
				assert.Equal(rt, result.DamageTotal, out.Damage)
			}
		}
	})
}

// TestBuildAOEShape_OriginRange: a chosen origin beyond the ability's range
// is rejected before any rolls.
func TestBuildAOEShape_OriginRange(t *testing.T) {
	b := combat.NewBoard(40, 40)
	b.Positions[combat.PlayerID] = grid.Position{Row: 0, Col: 0}

	near := grid.Position{Row: 0, Col: 5} // 25 ft
	_, err := combat.BuildAOEShape(fireball(), b, combat.PlayerID, &near, nil)
	assert.NoError(t, err)

	far := grid.Position{Row: 0, Col: 35} // 175 ft, beyond 150
	_, err = combat.BuildAOEShape(fireball(), b, combat.PlayerID, &far, nil)
	assert.ErrorIs(t, err, combat.ErrImpossibleAction)
}

// TestTargetsInShape filters candidates by cell membership.
func TestTargetsInShape(t *testing.T) {
	b := combat.NewBoard(20, 20)
	b.Positions["in"] = grid.Position{Row: 5, Col: 5}
	b.Positions["out"] = grid.Position{Row: 15, Col: 15}

	shape := grid.Shape{Kind: grid.ShapeSphere, Origin: grid.Position{Row: 5, Col: 6}, Radius: 2}
	inside := &combat.Combatant{ID: "in"}
	outside := &combat.Combatant{ID: "out"}
	unplaced := &combat.Combatant{ID: "ghost"}

	hit := combat.TargetsInShape(shape, b, []*combat.Combatant{inside, outside, unplaced})
	require.Len(t, hit, 1)
	assert.Equal(t, "in", hit[0].ID)
}
