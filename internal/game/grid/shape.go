package grid

import "fmt"

// ShapeKind identifies the geometry of an area of effect.
type ShapeKind string

const (
	ShapeSphere   ShapeKind = "sphere"
	ShapeCylinder ShapeKind = "cylinder"
	ShapeCube     ShapeKind = "cube"
	ShapeCone     ShapeKind = "cone"
	ShapeLine     ShapeKind = "line"
)

// Valid reports whether k is one of the recognized shape kinds.
func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeSphere, ShapeCylinder, ShapeCube, ShapeCone, ShapeLine:
		return true
	default:
		return false
	}
}

// AOESpec declares an ability's area geometry in feet, as authored in content.
type AOESpec struct {
	// Shape is the geometry kind.
	Shape ShapeKind `yaml:"shape" json:"shape"`
	// SizeFeet is the radius for sphere/cylinder/cube and the length for cone/line.
	SizeFeet int `yaml:"size_feet" json:"sizeFeet"`
	// WidthFeet is the line width; ignored for other shapes.
	WidthFeet int `yaml:"width_feet" json:"widthFeet,omitempty"`
	// SelfOrigin forces the origin to the caster's position.
	SelfOrigin bool `yaml:"self_origin" json:"selfOrigin,omitempty"`
}

// Validate checks the area definition's invariants.
//
// Postcondition: Returns nil iff Shape is recognized, SizeFeet >= FeetPerSquare,
// and a line's WidthFeet >= FeetPerSquare.
func (s AOESpec) Validate() error {
	if !s.Shape.Valid() {
		return fmt.Errorf("aoe spec: unknown shape %q", s.Shape)
	}
	if s.SizeFeet < FeetPerSquare {
		return fmt.Errorf("aoe spec: size_feet must be >= %d, got %d", FeetPerSquare, s.SizeFeet)
	}
	if s.Shape == ShapeLine && s.WidthFeet < FeetPerSquare {
		return fmt.Errorf("aoe spec: line width_feet must be >= %d, got %d", FeetPerSquare, s.WidthFeet)
	}
	return nil
}

// Direction is a unit grid step for cone and line shapes.
//
// Invariant: DRow and DCol are each in {-1, 0, 1} and not both zero.
type Direction struct {
	DRow int `json:"dRow" yaml:"d_row"`
	DCol int `json:"dCol" yaml:"d_col"`
}

// Valid reports whether d is one of the eight grid directions.
func (d Direction) Valid() bool {
	if d.DRow < -1 || d.DRow > 1 || d.DCol < -1 || d.DCol > 1 {
		return false
	}
	return d.DRow != 0 || d.DCol != 0
}

// Shape is a resolved area of effect anchored on the grid, measured in squares.
type Shape struct {
	Kind   ShapeKind
	Origin Position
	// Radius in squares for sphere/cylinder/cube.
	Radius int
	// Length in squares for cone/line.
	Length int
	// Width in squares for line.
	Width int
	// Dir is the cast direction for cone/line.
	Dir Direction
}

// Build resolves an AOESpec into a concrete Shape.
// Self-origin specs ignore origin and anchor on casterPos; ranged radial shapes
// require a chosen origin; cone and line require a direction and always
// originate at the caster.
//
// Precondition: spec must pass Validate.
// Postcondition: Returns a Shape whose dimensions are in whole squares, or an
// error when a required origin or direction is missing.
func Build(spec AOESpec, casterPos Position, origin *Position, dir *Direction) (Shape, error) {
	if err := spec.Validate(); err != nil {
		return Shape{}, err
	}

	size := spec.SizeFeet / FeetPerSquare

	switch spec.Shape {
	case ShapeSphere, ShapeCylinder, ShapeCube:
		anchor := casterPos
		if !spec.SelfOrigin {
			if origin == nil {
				return Shape{}, fmt.Errorf("aoe shape %q requires a chosen origin", spec.Shape)
			}
			anchor = *origin
		}
		return Shape{Kind: spec.Shape, Origin: anchor, Radius: size}, nil

	case ShapeCone, ShapeLine:
		if dir == nil || !dir.Valid() {
			return Shape{}, fmt.Errorf("aoe shape %q requires a valid direction", spec.Shape)
		}
		width := spec.WidthFeet / FeetPerSquare
		if width < 1 {
			width = 1
		}
		return Shape{
			Kind:   spec.Shape,
			Origin: casterPos,
			Length: size,
			Width:  width,
			Dir:    *dir,
		}, nil

	default:
		return Shape{}, fmt.Errorf("aoe shape: unknown kind %q", spec.Shape)
	}
}

// Contains reports whether p falls inside the shape. Radial shapes include
// their origin cell; cone and line exclude the caster's cell.
func (s Shape) Contains(p Position) bool {
	dr := p.Row - s.Origin.Row
	dc := p.Col - s.Origin.Col

	switch s.Kind {
	case ShapeSphere, ShapeCylinder:
		return dr*dr+dc*dc <= s.Radius*s.Radius
	case ShapeCube:
		return ChebyshevDistance(s.Origin, p) <= s.Radius
	case ShapeCone:
		return s.coneContains(dr, dc)
	case ShapeLine:
		return s.lineContains(p)
	default:
		return false
	}
}

// coneContains implements a 90-degree grid cone: cells within Length squares
// of the origin that lie in the quarter-plane opened by Dir, excluding the
// origin cell. For cardinal directions the cone widens one square per square
// of distance; for diagonal directions it fills the quadrant.
func (s Shape) coneContains(dr, dc int) bool {
	if dr == 0 && dc == 0 {
		return false
	}
	dist := max(abs(dr), abs(dc))
	if dist > s.Length {
		return false
	}

	if s.Dir.DRow != 0 && s.Dir.DCol != 0 {
		// Diagonal cone: the quadrant between the two adjacent cardinals.
		return dr*s.Dir.DRow >= 0 && dc*s.Dir.DCol >= 0
	}

	// Cardinal cone: projection along Dir with spread equal to distance.
	var proj, perp int
	if s.Dir.DRow != 0 {
		proj, perp = dr*s.Dir.DRow, dc
	} else {
		proj, perp = dc*s.Dir.DCol, dr
	}
	return proj >= 1 && abs(perp) <= proj
}

// lineContains walks the line cell by cell, broadening perpendicular to Dir
// for widths above one square.
func (s Shape) lineContains(p Position) bool {
	// Perpendicular step used to broaden the beam.
	perp := Direction{DRow: -s.Dir.DCol, DCol: s.Dir.DRow}
	lo := -(s.Width - 1) / 2
	hi := s.Width / 2

	for k := 1; k <= s.Length; k++ {
		center := Position{
			Row: s.Origin.Row + k*s.Dir.DRow,
			Col: s.Origin.Col + k*s.Dir.DCol,
		}
		for o := lo; o <= hi; o++ {
			cell := Position{Row: center.Row + o*perp.DRow, Col: center.Col + o*perp.DCol}
			if cell == p {
				return true
			}
		}
	}
	return false
}

// Cells enumerates every in-bounds cell the shape covers, in row-major order.
//
// Precondition: rows > 0 and cols > 0.
// Postcondition: Every returned Position satisfies Contains and is within
// [0,rows) x [0,cols).
func (s Shape) Cells(rows, cols int) []Position {
	var cells []Position
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p := Position{Row: r, Col: c}
			if s.Contains(p) {
				cells = append(cells, p)
			}
		}
	}
	return cells
}
