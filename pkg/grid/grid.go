package grid

import (
	"fmt"
	"math"
)

// DefaultViaStepCost is the fixed cost of hopping one layer through a via.
const DefaultViaStepCost = 10.0

// DefaultMaxCells caps a grid at 2^24 cells, roughly 1 GiB of cell state.
const DefaultMaxCells = 1 << 24

// maxCells is the hard limit: search back-references are int32.
const maxCells = math.MaxInt32

// Rules is the design-rule set of the net currently being routed, in grid units.
type Rules struct {
	Clearance   int `json:"clearance"`
	TraceWidth  int `json:"trace_width"`
	ViaDiameter int `json:"via_diameter"`
}

// TraceRadius is the half-size of the window summed for trace cost.
func (r Rules) TraceRadius() int { return r.TraceWidth/2 + r.Clearance }

// ViaRadius is the half-size of the window summed for via cost.
func (r Rules) ViaRadius() int { return r.ViaDiameter/2 + r.Clearance }

func (r Rules) window() int { return max(r.TraceRadius(), r.ViaRadius()) }

// Option configures a CostGrid.
type Option func(*CostGrid)

// WithViaStepCost sets the fixed cost of hopping one layer.
func WithViaStepCost(c float64) Option {
	return func(g *CostGrid) { g.viaStep = c }
}

// WithBlockThreshold makes cells whose incremental cost reaches t impassable.
// A non-positive t disables blocking.
func WithBlockThreshold(t float64) Option {
	return func(g *CostGrid) {
		if t > 0 {
			g.block = t
		}
	}
}

// WithMaxCells caps the number of cells New may allocate. A non-positive n
// keeps DefaultMaxCells.
func WithMaxCells(n int) Option {
	return func(g *CostGrid) {
		if n > 0 {
			g.maxCells = min(n, maxCells)
		}
	}
}

// CostGrid is a dense width×height×layers grid of routing cells.
//
// A CostGrid is not safe for concurrent use; the router owns it and
// serializes every search and mutation.
type CostGrid struct {
	width, height, layers int

	cells   []cell
	scratch []scratch
	epoch   uint32

	rules    Rules
	viaStep  float64
	block    float64
	maxCells int

	stats SearchStats
}

// New allocates a grid with every cell vacant and at zero cost. Grids larger
// than the cell limit (see WithMaxCells) are rejected with
// ErrInvalidDimensions before anything is allocated.
func New(width, height, layers int, opts ...Option) (*CostGrid, error) {
	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, width, height, layers)
	}
	g := &CostGrid{
		width:    width,
		height:   height,
		layers:   layers,
		viaStep:  DefaultViaStepCost,
		block:    math.Inf(1),
		maxCells: DefaultMaxCells,
	}
	for _, opt := range opts {
		opt(g)
	}
	n, ok := cellCount(width, height, layers)
	if !ok || n > g.maxCells {
		return nil, fmt.Errorf("%w: %dx%dx%d exceeds the limit of %d cells",
			ErrInvalidDimensions, width, height, layers, g.maxCells)
	}
	g.cells = make([]cell, n)
	g.scratch = make([]scratch, n)
	for i := range g.cells {
		g.cells[i].traceCache = invalidCost
		g.cells[i].viaCache = invalidCost
		g.scratch[i].from = -1
	}
	return g, nil
}

// cellCount multiplies the dimensions, reporting false on overflow.
func cellCount(dims ...int) (int, bool) {
	n := 1
	for _, d := range dims {
		if n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func (g *CostGrid) Width() int  { return g.width }
func (g *CostGrid) Height() int { return g.height }
func (g *CostGrid) Layers() int { return g.layers }

// Rules returns the active rule set.
func (g *CostGrid) Rules() Rules { return g.rules }

// SetRules activates a net's rule set. Cached costs depend on the rules, so a
// change drops every cache entry.
func (g *CostGrid) SetRules(r Rules) {
	if r == g.rules {
		return
	}
	g.rules = r
	for i := range g.cells {
		g.cells[i].traceCache = invalidCost
		g.cells[i].viaCache = invalidCost
	}
}

// Validate reports whether loc lies inside the grid.
func (g *CostGrid) Validate(loc Location) bool {
	return loc.X >= 0 && loc.X < g.width &&
		loc.Y >= 0 && loc.Y < g.height &&
		loc.Layer >= 0 && loc.Layer < g.layers
}

func (g *CostGrid) index(loc Location) int {
	return (loc.Layer*g.height+loc.Y)*g.width + loc.X
}

func (g *CostGrid) location(idx int) Location {
	plane := g.width * g.height
	layer := idx / plane
	rest := idx % plane
	return Location{X: rest % g.width, Y: rest / g.width, Layer: layer}
}

// =============================================================================
// Mutation
// =============================================================================

// AddBaseCost adds delta to the base cost of loc. It reports false if loc is
// out of bounds.
func (g *CostGrid) AddBaseCost(delta float64, loc Location) bool {
	if !g.Validate(loc) {
		return false
	}
	g.cells[g.index(loc)].base += delta
	g.invalidate(Rect{loc.X, loc.Y, loc.X, loc.Y}, loc.Layer)
	return true
}

// AddViaCost adds delta to the via cost of loc. It reports false if loc is
// out of bounds.
func (g *CostGrid) AddViaCost(delta float64, loc Location) bool {
	if !g.Validate(loc) {
		return false
	}
	g.cells[g.index(loc)].via += delta
	g.invalidate(Rect{loc.X, loc.Y, loc.X, loc.Y}, loc.Layer)
	return true
}

// AddCostRect adds delta over every cell of r on layer, to the base cost,
// the via cost, or both. The rectangle is clipped to the grid; it returns
// the number of cells touched.
func (g *CostGrid) AddCostRect(delta float64, r Rect, layer int, base, via bool) int {
	if layer < 0 || layer >= g.layers || (!base && !via) {
		return 0
	}
	c := r.clip(g.width, g.height)
	if c.Empty() {
		return 0
	}
	n := 0
	for y := c.MinY; y <= c.MaxY; y++ {
		row := (layer*g.height + y) * g.width
		for x := c.MinX; x <= c.MaxX; x++ {
			cl := &g.cells[row+x]
			if base {
				cl.base += delta
			}
			if via {
				cl.via += delta
			}
			n++
		}
	}
	g.invalidate(c, layer)
	return n
}

// SetViaForbidden forbids any via at loc regardless of cost.
func (g *CostGrid) SetViaForbidden(loc Location) bool {
	return g.setViaForbidden(loc, true)
}

// ClearViaForbidden lifts the via exclusion at loc.
func (g *CostGrid) ClearViaForbidden(loc Location) bool {
	return g.setViaForbidden(loc, false)
}

// SetViaForbiddenRect sets or clears the via exclusion over r on layer.
func (g *CostGrid) SetViaForbiddenRect(r Rect, layer int, forbidden bool) int {
	if layer < 0 || layer >= g.layers {
		return 0
	}
	c := r.clip(g.width, g.height)
	if c.Empty() {
		return 0
	}
	n := 0
	for y := c.MinY; y <= c.MaxY; y++ {
		row := (layer*g.height + y) * g.width
		for x := c.MinX; x <= c.MaxX; x++ {
			g.cells[row+x].viaForbidden = forbidden
			n++
		}
	}
	g.invalidate(c, layer)
	return n
}

func (g *CostGrid) setViaForbidden(loc Location, forbidden bool) bool {
	if !g.Validate(loc) {
		return false
	}
	g.cells[g.index(loc)].viaForbidden = forbidden
	g.invalidate(Rect{loc.X, loc.Y, loc.X, loc.Y}, loc.Layer)
	return true
}

// SetKind tags loc with k.
func (g *CostGrid) SetKind(loc Location, k Kind) bool {
	if !g.Validate(loc) {
		return false
	}
	g.cells[g.index(loc)].kind = k
	return true
}

// Occupy records one more committed path through loc, changing layer there
// when via is set, and retags the cell.
func (g *CostGrid) Occupy(loc Location, via bool) bool {
	if !g.Validate(loc) {
		return false
	}
	c := &g.cells[g.index(loc)]
	c.routes++
	if via {
		c.vias++
	}
	c.retag()
	return true
}

// Release undoes one Occupy. A cell another path still crosses keeps its
// trace or via tag.
func (g *CostGrid) Release(loc Location, via bool) bool {
	if !g.Validate(loc) {
		return false
	}
	c := &g.cells[g.index(loc)]
	if c.routes > 0 {
		c.routes--
	}
	if via && c.vias > 0 {
		c.vias--
	}
	c.retag()
	return true
}

// MarkPad tags every cell of r on layer as a pad, or with on unset drops the
// pad tag and falls back to the cell's route occupancy.
func (g *CostGrid) MarkPad(r Rect, layer int, on bool) int {
	if layer < 0 || layer >= g.layers {
		return 0
	}
	c := r.clip(g.width, g.height)
	if c.Empty() {
		return 0
	}
	n := 0
	for y := c.MinY; y <= c.MaxY; y++ {
		row := (layer*g.height + y) * g.width
		for x := c.MinX; x <= c.MaxX; x++ {
			cl := &g.cells[row+x]
			switch {
			case on:
				cl.kind = KindPad
			case cl.kind == KindPad:
				cl.kind = KindVacant
				cl.retag()
			}
			n++
		}
	}
	return n
}

// invalidate drops cached costs of every cell whose clearance window
// overlaps r on layer.
func (g *CostGrid) invalidate(r Rect, layer int) {
	c := r.Expand(g.rules.window()).clip(g.width, g.height)
	for y := c.MinY; y <= c.MaxY; y++ {
		row := (layer*g.height + y) * g.width
		for x := c.MinX; x <= c.MaxX; x++ {
			g.cells[row+x].traceCache = invalidCost
			g.cells[row+x].viaCache = invalidCost
		}
	}
}

// =============================================================================
// Queries
// =============================================================================

// BaseCost returns the accumulated base cost at loc, or 0 if out of bounds.
func (g *CostGrid) BaseCost(loc Location) float64 {
	if !g.Validate(loc) {
		return 0
	}
	return g.cells[g.index(loc)].base
}

// ViaCost returns the accumulated via cost at loc, or 0 if out of bounds.
func (g *CostGrid) ViaCost(loc Location) float64 {
	if !g.Validate(loc) {
		return 0
	}
	return g.cells[g.index(loc)].via
}

// ViaForbidden reports whether vias are excluded at loc.
func (g *CostGrid) ViaForbidden(loc Location) bool {
	if !g.Validate(loc) {
		return false
	}
	return g.cells[g.index(loc)].viaForbidden
}

// Kind returns the tag of loc.
func (g *CostGrid) Kind(loc Location) Kind {
	if !g.Validate(loc) {
		return KindVacant
	}
	c := g.cells[g.index(loc)]
	if c.kind == KindVacant && c.viaForbidden {
		return KindViaForbidden
	}
	return c.kind
}

// TraceCost returns the incremental cost of running a trace through loc
// under the active rules.
func (g *CostGrid) TraceCost(loc Location) float64 {
	if !g.Validate(loc) {
		return math.Inf(1)
	}
	return g.traceCost(g.index(loc))
}

// ViaPlacementCost returns the incremental cost of a via landing at loc
// under the active rules.
func (g *CostGrid) ViaPlacementCost(loc Location) float64 {
	if !g.Validate(loc) {
		return math.Inf(1)
	}
	return g.viaCost(g.index(loc))
}

func (g *CostGrid) traceCost(idx int) float64 {
	c := &g.cells[idx]
	if c.traceCache != invalidCost {
		return c.traceCache
	}
	loc := g.location(idx)
	sum := 0.0
	g.window(loc, g.rules.TraceRadius(), func(n *cell) { sum += n.base })
	c.traceCache = max(sum, 0)
	return c.traceCache
}

func (g *CostGrid) viaCost(idx int) float64 {
	c := &g.cells[idx]
	if c.viaCache != invalidCost {
		return c.viaCache
	}
	loc := g.location(idx)
	sum := 0.0
	g.window(loc, g.rules.ViaRadius(), func(n *cell) { sum += n.via + n.base })
	c.viaCache = max(sum, 0)
	return c.viaCache
}

func (g *CostGrid) window(loc Location, radius int, fn func(*cell)) {
	c := Rect{loc.X, loc.Y, loc.X, loc.Y}.Expand(radius).clip(g.width, g.height)
	for y := c.MinY; y <= c.MaxY; y++ {
		row := (loc.Layer*g.height + y) * g.width
		for x := c.MinX; x <= c.MaxX; x++ {
			fn(&g.cells[row+x])
		}
	}
}

func (g *CostGrid) blocked(cost float64) bool {
	return cost >= g.block
}
