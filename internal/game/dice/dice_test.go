package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// fixedSource returns a scripted sequence of values, cycling when exhausted.
// Values are what Intn returns, so a die face f is scripted as f-1.
type fixedSource struct {
	values []int
	next   int
}

func (f *fixedSource) Intn(n int) int {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v % n
}

// TestRollResult_Total verifies the postcondition: Total() == sum(Dice) + Modifier.
func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
}

// TestRollResult_Total_Property verifies the postcondition for arbitrary inputs.
func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rolled := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.IntRange(-100, 100).Draw(rt, "modifier")

		r := dice.RollResult{Expression: "NdM", Dice: rolled, Modifier: modifier}

		expected := modifier
		for _, d := range rolled {
			expected += d
		}
		assert.Equal(rt, expected, r.Total())
	})
}

// TestParse_ValidExpressions covers the supported expression forms.
func TestParse_ValidExpressions(t *testing.T) {
	cases := []struct {
		expr     string
		count    int
		sides    int
		modifier int
	}{
		{"d20", 1, 20, 0},
		{"2d6", 2, 6, 0},
		{"2d6+3", 2, 6, 3},
		{"4d8-2", 4, 8, -2},
		{"1d12+0", 1, 12, 0},
	}
	for _, tc := range cases {
		e, err := dice.Parse(tc.expr)
		require.NoError(t, err, "Parse(%q)", tc.expr)
		assert.Equal(t, tc.count, e.Count, "count of %q", tc.expr)
		assert.Equal(t, tc.sides, e.Sides, "sides of %q", tc.expr)
		assert.Equal(t, tc.modifier, e.Modifier, "modifier of %q", tc.expr)
	}
}

// TestParse_InvalidExpressions verifies descriptive errors on malformed input.
func TestParse_InvalidExpressions(t *testing.T) {
	for _, expr := range []string{"", "20", "0d6", "-1d6", "2d1", "2dx", "ad6"} {
		_, err := dice.Parse(expr)
		assert.Error(t, err, "Parse(%q) must fail", expr)
	}
}

// TestRoll_DiceCountAndRange verifies len(Dice) == Count and each die in [1, Sides].
func TestRoll_DiceCountAndRange(t *testing.T) {
	src := dice.NewCryptoSource()
	e := dice.MustParse("4d6+2")
	for i := 0; i < 100; i++ {
		r := dice.Roll(e, src)
		require.Len(t, r.Dice, 4)
		for _, d := range r.Dice {
			assert.GreaterOrEqual(t, d, 1)
			assert.LessOrEqual(t, d, 6)
		}
		assert.Equal(t, 2, r.Modifier)
	}
}

// TestDoubleCount_DoublesDiceNotModifier verifies the critical-hit rule:
// the die count doubles but the flat modifier never does.
func TestDoubleCount_DoublesDiceNotModifier(t *testing.T) {
	cases := []struct {
		expr    string
		doubled string
	}{
		{"1d8+3", "2d8+3"},
		{"2d6", "4d6"},
		{"3d4-1", "6d4-1"},
	}
	for _, tc := range cases {
		e := dice.MustParse(tc.expr)
		d := dice.DoubleCount(e)
		assert.Equal(t, e.Count*2, d.Count, "count of %q", tc.expr)
		assert.Equal(t, e.Modifier, d.Modifier, "modifier of %q must be unchanged", tc.expr)
		assert.Equal(t, e.Sides, d.Sides, "sides of %q", tc.expr)
		assert.Equal(t, tc.doubled, d.Raw)
	}
}

// TestDoubleCount_Property: doubling any parsed expression doubles the count
// and preserves sides and modifier.
func TestDoubleCount_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 20).Draw(rt, "count")
		sides := rapid.IntRange(2, 100).Draw(rt, "sides")
		mod := rapid.IntRange(-20, 20).Draw(rt, "mod")

		e := dice.Expression{Raw: "x", Count: count, Sides: sides, Modifier: mod}
		d := dice.DoubleCount(e)
		assert.Equal(rt, 2*count, d.Count)
		assert.Equal(rt, sides, d.Sides)
		assert.Equal(rt, mod, d.Modifier)
	})
}

// TestCryptoSource_Intn_InRange verifies every value is in [0, n).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

// TestCryptoSource_Intn_PanicsOnZero verifies the precondition guard.
func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}
