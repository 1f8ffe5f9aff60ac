// Package grid provides integer battle-grid positions, distance math, and
// area-of-effect shape geometry for the arena combat engine.
package grid

// FeetPerSquare is the scale of the battle grid.
const FeetPerSquare = 5

// Position is a cell on the fixed-size square battle grid.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// ChebyshevDistance returns the distance between a and b in squares, where
// diagonal steps count as one square.
//
// Postcondition: Returns >= 0.
func ChebyshevDistance(a, b Position) int {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	if dr > dc {
		return dr
	}
	return dc
}

// DistanceFeet returns the distance between a and b in feet.
//
// Postcondition: Returns ChebyshevDistance(a, b) * FeetPerSquare.
func DistanceFeet(a, b Position) int {
	return ChebyshevDistance(a, b) * FeetPerSquare
}

// Adjacent reports whether a and b are within one square of each other
// (including diagonals) and not the same cell.
func Adjacent(a, b Position) bool {
	return a != b && ChebyshevDistance(a, b) == 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
