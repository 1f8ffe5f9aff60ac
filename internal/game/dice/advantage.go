package dice

// AdvantageMode selects how a d20 check is rolled.
type AdvantageMode int

const (
	// Normal rolls a single d20.
	Normal AdvantageMode = iota
	// Advantage rolls two d20s and keeps the higher.
	Advantage
	// Disadvantage rolls two d20s and keeps the lower.
	Disadvantage
)

// String returns the human-readable mode name.
func (m AdvantageMode) String() string {
	switch m {
	case Advantage:
		return "advantage"
	case Disadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// Combine resolves simultaneous advantage and disadvantage sources into a
// single mode. When both are present they cancel to Normal.
//
// Postcondition: returns Normal when adv == dis.
func Combine(adv, dis bool) AdvantageMode {
	switch {
	case adv && !dis:
		return Advantage
	case dis && !adv:
		return Disadvantage
	default:
		return Normal
	}
}

// D20Result holds the kept value and every die rolled for a d20 check.
//
// Invariant: Value is an element of Rolls and 1 <= Value <= 20.
type D20Result struct {
	Value int   // the kept die
	Rolls []int // all dice rolled (1 for Normal, 2 otherwise)
	Mode  AdvantageMode
}

// IsNatural1 reports whether the kept die is a natural 1 (automatic failure).
func (r D20Result) IsNatural1() bool { return r.Value == 1 }

// IsNatural20 reports whether the kept die is a natural 20 (automatic success,
// critical hit on attack rolls).
func (r D20Result) IsNatural20() bool { return r.Value == 20 }

// RollD20 rolls a single d20.
//
// Precondition: src must be non-nil.
// Postcondition: 1 <= result <= 20.
func RollD20(src Source) int {
	return src.Intn(20) + 1
}

// RollD20WithAdvantage rolls a d20 check under the given mode.
// Advantage keeps the max of two dice, Disadvantage the min, Normal rolls once.
//
// Precondition: src must be non-nil.
// Postcondition: result.Value is in [1,20] and appears in result.Rolls.
func RollD20WithAdvantage(mode AdvantageMode, src Source) D20Result {
	first := RollD20(src)
	if mode == Normal {
		return D20Result{Value: first, Rolls: []int{first}, Mode: mode}
	}

	second := RollD20(src)
	kept := first
	if mode == Advantage && second > kept {
		kept = second
	}
	if mode == Disadvantage && second < kept {
		kept = second
	}
	return D20Result{Value: kept, Rolls: []int{first, second}, Mode: mode}
}
