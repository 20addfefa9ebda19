package router

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

func TestSplitAdjacent(t *testing.T) {
	p := grid.Path{
		{X: 0}, {X: 1}, {X: 2},
		{X: 7}, // jump
		{X: 8}, {X: 8, Layer: 1},
		{X: 3, Y: 3}, // jump to a lone point
	}
	got := splitAdjacent(p)
	want := []grid.Path{
		{{X: 0}, {X: 1}, {X: 2}},
		{{X: 7}, {X: 8}, {X: 8, Layer: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitAdjacent() mismatch (-want +got):\n%s", diff)
	}
}

func TestExportCompactsSegmentsAndVias(t *testing.T) {
	r := newTestRouter(t, testBoard(), testOptions(StrategyAvoidance))
	route := NewMultipinRoute(1, 0, grid.Rules{})
	route.Pins = [][]grid.Location{pinAt(10, 10, 0), pinAt(14, 12, 1)}
	route.Paths = []grid.Path{{
		{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 12, Y: 10},
		{X: 12, Y: 10, Layer: 1},
		{X: 13, Y: 11, Layer: 1}, {X: 14, Y: 12, Layer: 1},
	}}
	route.Cost = 12

	res := r.Export(&Solution{Routes: []*MultipinRoute{route}, Total: 12, Baseline: 20, BestPass: 0})
	require.Len(t, res.Nets, 1)
	nr := res.Nets[0]
	assert.Equal(t, "A", nr.Name)
	assert.Equal(t, "Default", nr.Netclass)

	require.Len(t, nr.Segments, 2)
	assert.Equal(t, "F.Cu", nr.Segments[0].Layer)
	assert.InDelta(t, 100, nr.Segments[0].Start.X, 1e-9)
	assert.InDelta(t, 100.2, nr.Segments[0].End.X, 1e-9)
	assert.Equal(t, 0.25, nr.Segments[0].Width)
	assert.Equal(t, "B.Cu", nr.Segments[1].Layer)

	require.Len(t, nr.Vias, 1)
	v := nr.Vias[0]
	assert.InDelta(t, 100.2, v.At.X, 1e-9)
	assert.InDelta(t, 50, v.At.Y, 1e-9)
	assert.Equal(t, 0.8, v.Diameter)
	assert.Equal(t, 0.4, v.Drill)
	assert.Equal(t, [2]string{"F.Cu", "B.Cu"}, [2]string{v.From, v.To})

	assert.InDelta(t, 2+2*math.Sqrt2, nr.GridWirelength, 1e-9)
	assert.InDelta(t, 0.2+0.2*math.Sqrt2, nr.Wirelength, 1e-9)

	s := res.Summary
	assert.Equal(t, 1, s.Nets)
	assert.Equal(t, 1, s.Complete)
	assert.Equal(t, 1, s.Vias)
	assert.Equal(t, 2, s.Segments)
	assert.Equal(t, 12.0, s.Cost)
	assert.Equal(t, 20.0, s.Baseline)
	assert.InDelta(t, nr.Wirelength, s.MeanWirelength, 1e-9)
	assert.Zero(t, s.StdWirelength)
}

func TestExportRoutedBoard(t *testing.T) {
	r := newTestRouter(t, testBoard(), testOptions(StrategyRipUp))
	sol, err := r.Route(context.Background())
	require.NoError(t, err)
	res := r.Export(sol)

	assert.Equal(t, "crossing", res.Board)
	assert.Equal(t, StrategyRipUp, res.Strategy)
	assert.Equal(t, []string{"F.Cu", "B.Cu"}, res.Layers)
	assert.Equal(t, GridInfo{Width: 121, Height: 71, Layers: 2, InputScale: 10, GridFactor: 0.1}, res.Grid)
	require.Len(t, res.Nets, 2)
	assert.Equal(t, 2, res.Summary.Complete)

	// Each net's copper touches both of its pins.
	b := r.Board()
	for _, nr := range res.Nets {
		net, _ := b.Net(nr.ID)
		for _, pin := range net.Pins {
			pos, err := b.PinPosition(pin)
			require.NoError(t, err)
			assert.True(t, touches(nr, pos, r.Mapper().GridFactor), "net %s misses pin at %v", nr.Name, pos)
		}
	}
}

func touches(nr NetResult, p board.Point, tol float64) bool {
	near := func(q board.Point) bool { return math.Hypot(q.X-p.X, q.Y-p.Y) <= tol }
	for _, s := range nr.Segments {
		if near(s.Start) || near(s.End) {
			return true
		}
	}
	for _, v := range nr.Vias {
		if near(v.At) {
			return true
		}
	}
	return false
}

func TestCostMap(t *testing.T) {
	r := newTestRouter(t, testBoard(), testOptions(StrategySimple))
	_, err := r.Route(context.Background())
	require.NoError(t, err)

	cm := r.CostMap()
	assert.Equal(t, 121, cm.Width)
	assert.Equal(t, 71, cm.Height)
	require.Len(t, cm.Layers, 2)
	assert.Len(t, cm.Layers[0], 121*71)
	assert.Equal(t, r.Grid().BaseCost(grid.Location{X: 110, Y: 10, Layer: 1}), cm.At(110, 10, 1))
	assert.GreaterOrEqual(t, cm.At(10, 10, 0), 1000.0)
}
