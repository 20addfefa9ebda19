package router

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

func testMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(board.Boundary{MinX: 100, MaxX: 110, MinY: 50, MaxY: 55}, 10, 20, 0)
	require.NoError(t, err)
	return m
}

func TestMapperGridSize(t *testing.T) {
	w, h := testMapper(t).GridSize()
	assert.Equal(t, 121, w)
	assert.Equal(t, 71, h)
}

func TestMapperGridSizeHoldsFarPins(t *testing.T) {
	tests := []struct {
		name    string
		bb      board.Boundary
		scale   float64
		enlarge int
	}{
		{"no margin", board.Boundary{MinX: 100, MaxX: 110, MinY: 50, MaxY: 55}, 10, 0},
		{"odd margin", board.Boundary{MinX: 100, MaxX: 110, MinY: 50, MaxY: 55}, 10, 1},
		{"fractional span", board.Boundary{MinX: 0, MaxX: 10.06, MinY: 0, MaxY: 5.04}, 10, 2},
		{"fractional span no margin", board.Boundary{MinX: 0.3, MaxX: 10.36, MinY: 0.1, MaxY: 5.17}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMapper(tt.bb, tt.scale, tt.enlarge, 0)
			require.NoError(t, err)
			w, h := m.GridSize()
			g, err := grid.New(w, h, 1)
			require.NoError(t, err)

			corners := []board.Point{
				{X: tt.bb.MinX, Y: tt.bb.MinY},
				{X: tt.bb.MaxX, Y: tt.bb.MaxY},
				{X: tt.bb.MinX, Y: tt.bb.MaxY},
				{X: tt.bb.MaxX, Y: tt.bb.MinY},
			}
			for _, p := range corners {
				loc := m.ToLocation(p, 0, RoundNearest)
				assert.True(t, g.Validate(loc), "%v maps to %v outside %dx%d", p, loc, w, h)
			}
		})
	}
}

func TestMapperToGrid(t *testing.T) {
	m := testMapper(t)
	tests := []struct {
		name string
		p    board.Point
		r    Rounding
		x, y int
	}{
		{"outline min", board.Point{X: 100, Y: 50}, RoundNearest, 10, 10},
		{"outline max", board.Point{X: 110, Y: 55}, RoundNearest, 110, 60},
		{"nearest", board.Point{X: 100.26, Y: 50.24}, RoundNearest, 13, 12},
		{"floor", board.Point{X: 100.26, Y: 50.29}, RoundFloor, 12, 12},
		{"ceil", board.Point{X: 100.21, Y: 50.21}, RoundCeil, 13, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := m.ToGrid(tt.p, tt.r)
			if x != tt.x || y != tt.y {
				t.Errorf("ToGrid(%v) = (%d, %d), want (%d, %d)", tt.p, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestMapperRoundTrip(t *testing.T) {
	m := testMapper(t)
	points := []board.Point{
		{X: 100, Y: 50},
		{X: 103.14159, Y: 52.71828},
		{X: 109.99, Y: 54.01},
		{X: 101.05, Y: 50.05},
		{X: 99.5, Y: 49.5}, // inside the enlarge margin
	}
	for _, p := range points {
		loc := m.ToLocation(p, 0, RoundNearest)
		q := m.ToBoard(loc)
		if d := math.Hypot(q.X-p.X, q.Y-p.Y); d > m.GridFactor {
			t.Errorf("round trip %v -> %v -> %v off by %v (> %v)", p, loc, q, d, m.GridFactor)
		}
	}
}

func TestMapperRectToGridRoundsOutward(t *testing.T) {
	m := testMapper(t)
	r := m.RectToGrid(board.Point{X: 101, Y: 51}, 0.25, 0.15)
	assert.Equal(t, grid.Rect{MinX: 18, MinY: 19, MaxX: 22, MaxY: 21}, r)
}

func TestMapperLengthToGrid(t *testing.T) {
	m := testMapper(t)
	tests := []struct {
		l    float64
		want int
	}{
		{0, 0},
		{0.2, 2},
		{0.25, 3},
		{0.8, 8},
		{0.3, 3},
	}
	for _, tt := range tests {
		if got := m.LengthToGrid(tt.l); got != tt.want {
			t.Errorf("LengthToGrid(%v) = %d, want %d", tt.l, got, tt.want)
		}
	}
	assert.InDelta(t, 0.5, m.GridToLength(5), 1e-12)
}

func TestNewMapperRejects(t *testing.T) {
	bb := board.Boundary{MaxX: 1, MaxY: 1}
	_, err := NewMapper(bb, 0, 20, 0)
	assert.Error(t, err)
	_, err = NewMapper(bb, 10, -1, 0)
	assert.Error(t, err)
	_, err = NewMapper(bb, 10, 20, -0.1)
	assert.Error(t, err)

	m, err := NewMapper(bb, 4, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.25, m.GridFactor)
}

func TestNewGridNetclass(t *testing.T) {
	nc := NewGridNetclass(board.Netclass{
		ID: 2, Clearance: 0.2, TraceWidth: 0.25, ViaDiameter: 0.8, ViaDrill: 0.4,
	}, testMapper(t))
	assert.Equal(t, GridNetclass{ID: 2, Clearance: 2, TraceWidth: 3, ViaDiameter: 8, ViaDrill: 4}, nc)
	assert.Equal(t, grid.Rules{Clearance: 2, TraceWidth: 3, ViaDiameter: 8}, nc.Rules())
}
