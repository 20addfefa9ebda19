package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/grid"
)

// crossingRoutes routes four nets that all compete for the middle of a
// two-layer grid, in the given order.
func crossingRoutes(t *testing.T, m *MultipinRouter) []*MultipinRoute {
	t.Helper()
	pins := [][2][2]int{
		{{0, 10}, {29, 10}},
		{{15, 0}, {15, 24}},
		{{0, 0}, {29, 24}},
		{{29, 0}, {0, 24}},
	}
	var routes []*MultipinRoute
	for i, p := range pins {
		r := NewMultipinRoute(i+1, 0, testRules)
		r.Pins = [][]grid.Location{pinAt(p[0][0], p[0][1], 0), pinAt(p[1][0], p[1][1], 0)}
		_ = m.Route(r)
		routes = append(routes, r)
	}
	return routes
}

func TestRipUpNeverWorseThanBaseline(t *testing.T) {
	for _, passes := range []int{1, 3, 5} {
		m := newMultipin(t, 30, 25, 2)
		routes := crossingRoutes(t, m)
		baseline := totalCost(routes)

		ru := &RipUpReRoute{Router: m, Passes: passes}
		sol, err := ru.Run(context.Background(), routes)
		require.NoError(t, err)

		assert.Equal(t, baseline, sol.Baseline)
		assert.LessOrEqual(t, sol.Total, baseline)
		assert.Len(t, sol.Passes, passes)
		assert.InDelta(t, sol.Total, totalCost(sol.Routes), 1e-6, "snapshot total matches its routes")
		for _, ps := range sol.Passes {
			assert.LessOrEqual(t, ps.Best, baseline)
		}
		for _, r := range sol.Routes {
			for _, p := range r.Paths {
				require.NoError(t, p.Validate())
			}
		}
	}
}

func TestRipUpSnapshotIsIndependent(t *testing.T) {
	m := newMultipin(t, 30, 25, 2)
	routes := crossingRoutes(t, m)

	ru := &RipUpReRoute{Router: m, Passes: 2}
	sol, err := ru.Run(context.Background(), routes)
	require.NoError(t, err)

	for i := range routes {
		assert.NotSame(t, routes[i], sol.Routes[i])
	}
	routes[0].Paths = nil
	if sol.BestPass == -1 {
		assert.NotEmpty(t, sol.Routes[0].Paths)
	}
}

func TestRipUpSingleNetIsStable(t *testing.T) {
	m := newMultipin(t, 30, 25, 2)
	r := threePinRoute()
	require.NoError(t, m.Route(r))
	cost := r.Cost

	var seen []PassStats
	ru := &RipUpReRoute{
		Router:         m,
		Passes:         5,
		StopWhenStable: true,
		OnPass:         func(ps PassStats, _ []*MultipinRoute) { seen = append(seen, ps) },
	}
	sol, err := ru.Run(context.Background(), []*MultipinRoute{r})
	require.NoError(t, err)

	assert.Len(t, sol.Passes, 1, "an unchanged total ends the loop")
	assert.Equal(t, seen, sol.Passes)
	assert.Equal(t, cost, sol.Total)
	assert.Equal(t, -1, sol.BestPass, "an equal total does not replace the baseline")
}

func TestRipUpOrderMismatchIsNotFatal(t *testing.T) {
	m := newMultipin(t, 30, 25, 2)
	routes := crossingRoutes(t, m)
	ru := &RipUpReRoute{Router: m, Passes: 1, Order: []int{4, 3, 2, 1}}
	sol, err := ru.Run(context.Background(), routes)
	require.NoError(t, err)
	assert.Len(t, sol.Passes, 1)
}

func TestRipUpCancelled(t *testing.T) {
	m := newMultipin(t, 30, 25, 2)
	routes := crossingRoutes(t, m)
	baseline := totalCost(routes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ru := &RipUpReRoute{Router: m, Passes: 3}
	sol, err := ru.Run(ctx, routes)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sol)
	assert.Equal(t, baseline, sol.Total)
}

func TestRipUpRelievesPins(t *testing.T) {
	r := newTestRouter(t, testBoard(), testOptions(StrategyRipUp))
	sol, err := r.Route(context.Background())
	require.NoError(t, err)

	// After the run every pad is back at full obstacle cost.
	p := r.projector
	for _, loc := range []grid.Location{{X: 10, Y: 10}, {X: 10, Y: 30}, {X: 110, Y: 10}, {X: 110, Y: 60}} {
		assert.GreaterOrEqual(t, p.Grid.BaseCost(loc), p.Cost, "pad at %v", loc)
	}
	assert.LessOrEqual(t, sol.Total, sol.Baseline)
}
