package router

import (
	"fmt"
	"math"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

// Rounding selects how a board coordinate snaps to a grid cell.
type Rounding int

const (
	RoundNearest Rounding = iota
	RoundFloor
	RoundCeil
)

// lengthEpsilon absorbs float noise such as 0.25*10 = 2.5000000000000004
// before rounding rule lengths up.
const lengthEpsilon = 1e-9

// Mapper is the affine transform between board units and grid cells:
//
//	grid  = round(db·scale − min·scale + enlarge/2)
//	board = factor·(grid + min·scale − enlarge/2)
//
// The enlarge margin keeps pads on the routing outline away from the grid edge.
type Mapper struct {
	Boundary        board.Boundary
	InputScale      float64
	EnlargeBoundary int
	GridFactor      float64
}

// NewMapper validates the transform parameters. A zero gridFactor defaults to
// 1/inputScale, the exact inverse.
func NewMapper(bb board.Boundary, inputScale float64, enlarge int, gridFactor float64) (*Mapper, error) {
	if inputScale <= 0 || math.IsNaN(inputScale) || math.IsInf(inputScale, 0) {
		return nil, fmt.Errorf("input scale must be positive, got %v", inputScale)
	}
	if enlarge < 0 {
		return nil, fmt.Errorf("enlarge boundary must be non-negative, got %d", enlarge)
	}
	if gridFactor == 0 {
		gridFactor = 1 / inputScale
	}
	if gridFactor < 0 {
		return nil, fmt.Errorf("grid factor must be positive, got %v", gridFactor)
	}
	return &Mapper{Boundary: bb, InputScale: inputScale, EnlargeBoundary: enlarge, GridFactor: gridFactor}, nil
}

// GridSize returns the grid width and height covering the boundary plus
// the enlarge margin. A pin on the far edge of the boundary maps to at most
// ceil(span) + enlarge, so both sizes reserve one cell beyond that.
func (m *Mapper) GridSize() (w, h int) {
	s := m.InputScale
	w = cells(math.Abs(m.Boundary.MaxX*s-m.Boundary.MinX*s)) + m.EnlargeBoundary + 1
	h = cells(math.Abs(m.Boundary.MaxY*s-m.Boundary.MinY*s)) + m.EnlargeBoundary + 1
	return w, h
}

// cells rounds a span up to whole cells, saturating at MaxInt32 so an
// absurd scale still yields a size the grid can reject.
func cells(span float64) int {
	c := math.Ceil(span - lengthEpsilon)
	if c > math.MaxInt32 || math.IsNaN(c) {
		return math.MaxInt32
	}
	return int(c)
}

// ToGrid maps a board point to grid coordinates.
func (m *Mapper) ToGrid(p board.Point, r Rounding) (x, y int) {
	half := float64(m.EnlargeBoundary) / 2
	fx := p.X*m.InputScale - m.Boundary.MinX*m.InputScale + half
	fy := p.Y*m.InputScale - m.Boundary.MinY*m.InputScale + half
	return snap(fx, r), snap(fy, r)
}

// ToLocation maps a board point on layer to a grid location.
func (m *Mapper) ToLocation(p board.Point, layer int, r Rounding) grid.Location {
	x, y := m.ToGrid(p, r)
	return grid.Location{X: x, Y: y, Layer: layer}
}

// ToBoard maps the in-plane position of loc back to board units.
func (m *Mapper) ToBoard(loc grid.Location) board.Point {
	half := float64(m.EnlargeBoundary) / 2
	return board.Point{
		X: m.GridFactor * (float64(loc.X) + m.Boundary.MinX*m.InputScale - half),
		Y: m.GridFactor * (float64(loc.Y) + m.Boundary.MinY*m.InputScale - half),
	}
}

// RectToGrid maps the axis-aligned box centered on c with size w×h to the
// inclusive grid rectangle that covers it, rounding outward.
func (m *Mapper) RectToGrid(c board.Point, w, h float64) grid.Rect {
	minX, minY := m.ToGrid(board.Point{X: c.X - w/2, Y: c.Y - h/2}, RoundFloor)
	maxX, maxY := m.ToGrid(board.Point{X: c.X + w/2, Y: c.Y + h/2}, RoundCeil)
	return grid.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// LengthToGrid converts a rule length to whole grid cells, rounding up so a
// rule is never weakened by the conversion.
func (m *Mapper) LengthToGrid(l float64) int {
	if l <= 0 {
		return 0
	}
	return int(math.Ceil(l*m.InputScale - lengthEpsilon))
}

// GridToLength converts a grid distance back to board units.
func (m *Mapper) GridToLength(cells float64) float64 {
	return cells * m.GridFactor
}

func snap(v float64, r Rounding) int {
	switch r {
	case RoundFloor:
		return int(math.Floor(v))
	case RoundCeil:
		return int(math.Ceil(v))
	}
	return int(math.Round(v))
}
