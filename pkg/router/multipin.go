package router

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridroute/pkg/errors"
	"github.com/matzehuels/gridroute/pkg/grid"
)

// MultipinRouter grows one net at a time into a tree touching every pin.
//
// Pins are connected in list order: the first pin seeds the tree, every
// following pin is searched from all cells of the tree grown so far. This is
// a sequential Steiner approximation, not a minimal Steiner tree.
type MultipinRouter struct {
	Grid *grid.CostGrid

	// TraceCost is added to the base cost of every cell under a committed
	// trace; ViaCost to the base and via cost under a committed via.
	TraceCost float64
	ViaCost   float64

	// FailurePenalty is added to a route's cost per unreachable pin.
	FailurePenalty float64

	Logger *log.Logger
}

func (m *MultipinRouter) logger() *log.Logger {
	if m.Logger == nil {
		return log.New(io.Discard)
	}
	return m.Logger
}

// Route connects every pin of route and commits the paths to the grid. A
// route that already holds paths is ripped up first.
//
// A pin that cannot be reached is counted in FailedPins, penalized in Cost
// and skipped; the remaining pins are still connected to the tree. The
// returned error carries errors.ErrCodeNoPath in that case.
func (m *MultipinRouter) Route(route *MultipinRoute) error {
	if route.Routed() {
		m.RipUp(route)
	}
	route.Cost = 0
	route.FailedPins = 0
	if len(route.Pins) < 2 {
		return nil
	}
	m.Grid.SetRules(route.Rules)
	route.traceRadius = route.Rules.TraceWidth / 2
	route.viaRadius = route.Rules.ViaDiameter / 2

	tree := newTree(route.Pins[0])
	if len(route.Pins[0]) == 0 {
		route.FailedPins++
		route.Cost += m.FailurePenalty
	}

	var failed []int
	for i := 1; i < len(route.Pins); i++ {
		terminals := route.Pins[i]
		if len(tree.cells) == 0 {
			// Nothing to grow from yet: this pin seeds the tree.
			tree.add(terminals...)
			continue
		}
		path, cost, err := m.Grid.Search(tree.cells, terminals)
		if err != nil {
			m.logger().Debug("pin unreachable", "net", route.NetID, "pin", i, "err", err)
			route.FailedPins++
			route.Cost += m.FailurePenalty
			failed = append(failed, i)
			continue
		}
		st := m.Grid.LastSearch()
		m.logger().Debug("pin connected", "net", route.NetID, "pin", i, "cost", cost,
			"steps", len(path)-1, "expanded", st.Expanded, "pushed", st.Pushed)
		route.Cost += cost
		tree.add(terminals...)
		if len(path) < 2 {
			continue
		}
		m.commit(route, path, 1)
		route.Paths = append(route.Paths, path)
		tree.add(path...)
	}

	if len(failed) > 0 {
		return errors.Wrap(errors.ErrCodeNoPath, grid.ErrNoPathFound,
			"net %d: %d of %d pins unreachable (pins %v)", route.NetID, len(failed), len(route.Pins), failed)
	}
	return nil
}

// RipUp removes every committed path of route from the grid and resets its
// cost. The grid costs return exactly to their state before Route.
func (m *MultipinRouter) RipUp(route *MultipinRoute) {
	for i := len(route.Paths) - 1; i >= 0; i-- {
		m.commit(route, route.Paths[i], -1)
	}
	route.Paths = nil
	route.Cost = 0
	route.FailedPins = 0
}

// commit adds (sign=1) or removes (sign=-1) the copper footprint of path:
// TraceCost under every cell, ViaCost under every cell where the path
// changes layer. Each cell is counted once per path.
func (m *MultipinRouter) commit(route *MultipinRoute, path grid.Path, sign float64) {
	vias := map[grid.Location]bool{}
	for i := 1; i < len(path); i++ {
		if path[i-1].Layer != path[i].Layer {
			vias[path[i-1]] = true
			vias[path[i]] = true
		}
	}
	seen := make(map[grid.Location]bool, len(path))
	for _, loc := range path {
		if seen[loc] {
			continue
		}
		seen[loc] = true
		m.Grid.AddCostRect(sign*m.TraceCost, square(loc, route.traceRadius), loc.Layer, true, false)
		if vias[loc] {
			m.Grid.AddCostRect(sign*m.ViaCost, square(loc, route.viaRadius), loc.Layer, true, true)
		}
		if sign > 0 {
			m.Grid.Occupy(loc, vias[loc])
		} else {
			m.Grid.Release(loc, vias[loc])
		}
	}
}

func square(c grid.Location, r int) grid.Rect {
	return grid.Rect{MinX: c.X - r, MinY: c.Y - r, MaxX: c.X + r, MaxY: c.Y + r}
}

// tree is the ordered, duplicate-free cell set of a growing route.
type tree struct {
	cells []grid.Location
	seen  map[grid.Location]bool
}

func newTree(seed []grid.Location) *tree {
	t := &tree{seen: map[grid.Location]bool{}}
	t.add(seed...)
	return t
}

func (t *tree) add(locs ...grid.Location) {
	for _, l := range locs {
		if !t.seen[l] {
			t.seen[l] = true
			t.cells = append(t.cells, l)
		}
	}
}
