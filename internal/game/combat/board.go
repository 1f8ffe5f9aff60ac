package combat

import "github.com/cory-johannsen/arena/internal/game/grid"

// Condition is a combat condition affecting rolls.
type Condition string

const (
	ConditionProne      Condition = "prone"
	ConditionRestrained Condition = "restrained"
	ConditionBlinded    Condition = "blinded"
	// ConditionCover marks a combatant behind cover relative to attackers.
	ConditionCover Condition = "cover"
	// ConditionDodging is gained from the dodge action until the next turn.
	ConditionDodging Condition = "dodging"
)

// Board is the positional view the resolvers consult: where everyone stands
// and which conditions they carry. It is read-only during resolution.
type Board struct {
	Rows int
	Cols int
	// Positions maps combatant id to grid cell.
	Positions map[string]grid.Position
	// Conditions maps combatant id to active conditions.
	Conditions map[string][]Condition
}

// NewBoard creates an empty board of the given dimensions.
//
// Precondition: rows > 0 and cols > 0.
func NewBoard(rows, cols int) *Board {
	return &Board{
		Rows:       rows,
		Cols:       cols,
		Positions:  make(map[string]grid.Position),
		Conditions: make(map[string][]Condition),
	}
}

// PositionOf returns the combatant's cell and whether it is known.
func (b *Board) PositionOf(id string) (grid.Position, bool) {
	p, ok := b.Positions[id]
	return p, ok
}

// HasCondition reports whether the combatant carries the given condition.
func (b *Board) HasCondition(id string, c Condition) bool {
	for _, have := range b.Conditions[id] {
		if have == c {
			return true
		}
	}
	return false
}

// DistanceFeet returns the distance between two combatants in feet, or -1
// when either position is unknown.
func (b *Board) DistanceFeet(aID, bID string) int {
	ap, aOK := b.Positions[aID]
	bp, bOK := b.Positions[bID]
	if !aOK || !bOK {
		return -1
	}
	return grid.DistanceFeet(ap, bp)
}
