package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/board/boardtest"
	"github.com/matzehuels/gridroute/pkg/errors"
	"github.com/matzehuels/gridroute/pkg/grid"
)

func testBoard() *board.Board { return boardtest.Crossing() }

func testOptions(s Strategy) Options {
	opts := DefaultOptions()
	opts.Strategy = s
	opts.Passes = 2
	return opts
}

func newTestRouter(t *testing.T, b *board.Board, opts Options) *Router {
	t.Helper()
	r, err := New(b, opts)
	require.NoError(t, err)
	return r
}

// requireLegal checks every committed path: single legal steps, in bounds.
func requireLegal(t *testing.T, g *grid.CostGrid, routes []*MultipinRoute) {
	t.Helper()
	for _, rt := range routes {
		for _, p := range rt.Paths {
			require.NoError(t, p.Validate(), "net %d", rt.NetID)
			for _, loc := range p {
				require.True(t, g.Validate(loc), "net %d: %v out of bounds", rt.NetID, loc)
			}
		}
	}
}

func TestRouterStrategies(t *testing.T) {
	for _, s := range Strategies {
		t.Run(string(s), func(t *testing.T) {
			r := newTestRouter(t, testBoard(), testOptions(s))
			sol, err := r.Route(context.Background())
			require.NoError(t, err)
			require.Len(t, sol.Routes, 2)

			requireLegal(t, r.Grid(), sol.Routes)
			for _, rt := range sol.Routes {
				assert.True(t, rt.Complete(), "net %d has %d failed pins", rt.NetID, rt.FailedPins)
				assert.NotEmpty(t, rt.Paths)
			}
			assert.LessOrEqual(t, sol.Total, sol.Baseline)

			if s == StrategySimple {
				for _, rt := range sol.Routes {
					assert.Zero(t, rt.ViaCount(), "simple strategy stays on the first layer")
				}
			}
			if s == StrategyRipUp {
				assert.Len(t, sol.Passes, 2)
			} else {
				assert.Empty(t, sol.Passes)
			}
		})
	}
}

func TestRouterTerminals(t *testing.T) {
	b := testBoard()

	simple := newTestRouter(t, b, testOptions(StrategySimple))
	route, err := simple.newRoute(&b.Nets[0])
	require.NoError(t, err)
	assert.Equal(t, [][]grid.Location{
		{{X: 10, Y: 10, Layer: 0}},
		{{X: 110, Y: 60, Layer: 0}},
	}, route.Pins)

	avoid := newTestRouter(t, b, testOptions(StrategyAvoidance))
	route, err = avoid.newRoute(&b.Nets[0])
	require.NoError(t, err)
	assert.Equal(t, [][]grid.Location{
		{{X: 10, Y: 10, Layer: 0}},
		{{X: 110, Y: 60, Layer: 0}, {X: 110, Y: 60, Layer: 1}},
	}, route.Pins, "through-hole pins can be entered on every layer")
}

func TestRouterNetclassFallback(t *testing.T) {
	b := testBoard()
	b.Netclasses = append(b.Netclasses, board.Netclass{ID: 1, Name: "Power", Clearance: 0.3, TraceWidth: 0.5, ViaDiameter: 1, ViaDrill: 0.5})
	b.Nets[0].Netclass = 1
	b.Nets[1].Netclass = 42

	r := newTestRouter(t, b, testOptions(StrategyAvoidance))
	sol, err := r.Route(context.Background())
	require.NoError(t, err)
	require.Len(t, sol.Routes, 2)
	assert.Equal(t, 1, sol.Routes[0].Netclass)
	assert.Equal(t, grid.Rules{Clearance: 3, TraceWidth: 5, ViaDiameter: 10}, sol.Routes[0].Rules)
	assert.Equal(t, 0, sol.Routes[1].Netclass, "unknown netclass falls back to the first")
}

func TestRouterSkipsBrokenNets(t *testing.T) {
	b := testBoard()
	b.Nets = append(b.Nets,
		board.Net{ID: 3, Name: "dangling", Pins: []board.PinRef{{Instance: 0, Pad: 0}, {Instance: 7, Pad: 0}}},
		board.Net{ID: 4, Name: "single", Pins: []board.PinRef{{Instance: 0, Pad: 0}}},
	)
	r := newTestRouter(t, b, testOptions(StrategyAvoidance))
	sol, err := r.Route(context.Background())
	require.NoError(t, err)

	var ids []int
	for _, rt := range sol.Routes {
		ids = append(ids, rt.NetID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}

func TestRouterWithoutMargin(t *testing.T) {
	for _, enlarge := range []int{0, 1} {
		opts := testOptions(StrategyAvoidance)
		opts.EnlargeBoundary = enlarge
		r := newTestRouter(t, testBoard(), opts)
		sol, err := r.Route(context.Background())
		require.NoError(t, err, "enlarge %d", enlarge)

		requireLegal(t, r.Grid(), sol.Routes)
		for _, rt := range sol.Routes {
			for _, pin := range rt.Pins {
				for _, loc := range pin {
					assert.True(t, r.Grid().Validate(loc), "enlarge %d: pin %v out of bounds", enlarge, loc)
				}
			}
			assert.True(t, rt.Complete(), "enlarge %d: net %d has %d failed pins", enlarge, rt.NetID, rt.FailedPins)
		}
	}
}

func TestNewRejectsOversizedGrid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"huge scale", func(o *Options) { o.InputScale = 1e6 }},
		{"overflowing scale", func(o *Options) { o.InputScale = 1e300 }},
		{"tight limit", func(o *Options) { o.MaxCells = 1000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(StrategyRipUp)
			tt.mutate(&opts)
			r, err := New(testBoard(), opts)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.Equal(t, errors.ErrCodeInvalidGrid, errors.GetCode(err))
			assert.ErrorIs(t, err, grid.ErrInvalidDimensions)
		})
	}
}

func TestRouterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newTestRouter(t, testBoard(), testOptions(StrategyRipUp))
	_, err := r.Route(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*board.Board, *Options)
	}{
		{"unknown strategy", func(_ *board.Board, o *Options) { o.Strategy = "maze" }},
		{"zero scale", func(_ *board.Board, o *Options) { o.InputScale = 0 }},
		{"negative cost", func(_ *board.Board, o *Options) { o.TraceCost = -1 }},
		{"negative cell limit", func(_ *board.Board, o *Options) { o.MaxCells = -1 }},
		{"no layers", func(b *board.Board, _ *Options) { b.Layers = nil }},
		{"no netclasses", func(b *board.Board, _ *Options) { b.Netclasses = nil }},
		{"no pads", func(b *board.Board, _ *Options) { b.Instances = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, opts := testBoard(), testOptions(StrategyRipUp)
			tt.mutate(b, &opts)
			if _, err := New(b, opts); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for _, name := range StrategyNames() {
		s, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, Strategy(name), s)
	}
	_, err := ParseStrategy("lee")
	assert.Error(t, err)
}
