package router

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

// Result is the routed board in board units, ready for a sink.
type Result struct {
	Board    string      `json:"board"`
	Strategy Strategy    `json:"strategy"`
	Layers   []string    `json:"layers"`
	Grid     GridInfo    `json:"grid"`
	Nets     []NetResult `json:"nets"`
	Summary  Summary     `json:"summary"`
	Passes   []PassStats `json:"passes,omitempty"`
	CostMap  *CostMap    `json:"cost_map,omitempty"`
}

// GridInfo records the grid the result was routed on.
type GridInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Layers     int     `json:"layers"`
	InputScale float64 `json:"input_scale"`
	GridFactor float64 `json:"grid_factor"`
}

// NetResult is one routed net.
type NetResult struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Netclass       string    `json:"netclass"`
	Pins           int       `json:"pins"`
	FailedPins     int       `json:"failed_pins"`
	Cost           float64   `json:"cost"`
	Wirelength     float64   `json:"wirelength"`
	GridWirelength float64   `json:"grid_wirelength"`
	Segments       []Segment `json:"segments"`
	Vias           []Via     `json:"vias"`
}

// Segment is a straight copper track on one layer.
type Segment struct {
	Start board.Point `json:"start"`
	End   board.Point `json:"end"`
	Width float64     `json:"width"`
	Layer string      `json:"layer"`
}

// Length returns the segment length in board units.
func (s Segment) Length() float64 {
	return math.Hypot(s.End.X-s.Start.X, s.End.Y-s.Start.Y)
}

// Via is a plated hole connecting two layers.
type Via struct {
	At       board.Point `json:"at"`
	Diameter float64     `json:"diameter"`
	Drill    float64     `json:"drill"`
	From     string      `json:"from"`
	To       string      `json:"to"`
}

// Summary aggregates the result.
type Summary struct {
	Nets           int     `json:"nets"`
	Complete       int     `json:"complete"`
	FailedPins     int     `json:"failed_pins"`
	Segments       int     `json:"segments"`
	Vias           int     `json:"vias"`
	Cost           float64 `json:"cost"`
	Baseline       float64 `json:"baseline"`
	Wirelength     float64 `json:"wirelength"`
	GridWirelength float64 `json:"grid_wirelength"`
	MeanWirelength float64 `json:"mean_wirelength"`
	StdWirelength  float64 `json:"std_wirelength"`
}

// CostMap is the base cost of every grid cell, one row-major plane per layer.
type CostMap struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Layers [][]float64 `json:"layers"`
}

// At returns the cost at (x, y) on layer.
func (c *CostMap) At(x, y, layer int) float64 {
	return c.Layers[layer][y*c.Width+x]
}

// Export converts sol into board units. Paths are split wherever two
// consecutive locations are not adjacent, then compacted so every straight
// run becomes one segment; a layer change becomes a via spanning the layers
// it connects.
func (r *Router) Export(sol *Solution) *Result {
	res := &Result{
		Board:    r.board.Name,
		Strategy: r.opts.Strategy,
		Grid: GridInfo{
			Width:      r.grid.Width(),
			Height:     r.grid.Height(),
			Layers:     r.grid.Layers(),
			InputScale: r.mapper.InputScale,
			GridFactor: r.mapper.GridFactor,
		},
		Passes: sol.Passes,
	}
	for _, l := range r.board.Layers {
		res.Layers = append(res.Layers, l.Name)
	}

	var lengths []float64
	for _, route := range sol.Routes {
		net, ok := r.board.Net(route.NetID)
		if !ok {
			r.logger.Warn("export: unknown net", "id", route.NetID)
			continue
		}
		nc, ok := r.board.Netclass(route.Netclass)
		if !ok {
			r.logger.Warn("export: unknown netclass", "net", net.Name, "netclass", route.Netclass)
			continue
		}
		nr := r.exportNet(net, nc, route)
		res.Nets = append(res.Nets, nr)
		lengths = append(lengths, nr.Wirelength)

		s := &res.Summary
		s.Nets++
		if route.Complete() {
			s.Complete++
		}
		s.FailedPins += nr.FailedPins
		s.Segments += len(nr.Segments)
		s.Vias += len(nr.Vias)
		s.Wirelength += nr.Wirelength
		s.GridWirelength += nr.GridWirelength
	}
	res.Summary.Cost = sol.Total
	res.Summary.Baseline = sol.Baseline
	if len(lengths) > 0 {
		mean, std := stat.MeanStdDev(lengths, nil)
		if len(lengths) < 2 || math.IsNaN(std) {
			std = 0
		}
		res.Summary.MeanWirelength = mean
		res.Summary.StdWirelength = std
	}
	return res
}

func (r *Router) exportNet(net *board.Net, nc board.Netclass, route *MultipinRoute) NetResult {
	nr := NetResult{
		ID:         net.ID,
		Name:       net.Name,
		Netclass:   nc.Name,
		Pins:       len(route.Pins),
		FailedPins: route.FailedPins,
		Cost:       route.Cost,
		Segments:   []Segment{},
		Vias:       []Via{},
	}
	for _, path := range route.Paths {
		for _, run := range splitAdjacent(path) {
			nr.GridWirelength += run.Wirelength()
			r.emit(&nr, nc, run.Compact())
		}
	}
	for _, s := range nr.Segments {
		nr.Wirelength += s.Length()
	}
	return nr
}

func (r *Router) emit(nr *NetResult, nc board.Netclass, p grid.Path) {
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		if a.Layer != b.Layer {
			nr.Vias = append(nr.Vias, Via{
				At:       r.mapper.ToBoard(a),
				Diameter: nc.ViaDiameter,
				Drill:    nc.ViaDrill,
				From:     r.LayerName(min(a.Layer, b.Layer)),
				To:       r.LayerName(max(a.Layer, b.Layer)),
			})
			continue
		}
		nr.Segments = append(nr.Segments, Segment{
			Start: r.mapper.ToBoard(a),
			End:   r.mapper.ToBoard(b),
			Width: nc.TraceWidth,
			Layer: r.LayerName(b.Layer),
		})
	}
}

// splitAdjacent cuts p at every step that is not a legal single move.
func splitAdjacent(p grid.Path) []grid.Path {
	var out []grid.Path
	start := 0
	for i := 1; i <= len(p); i++ {
		if i == len(p) || !grid.Adjacent(p[i-1], p[i]) {
			if i-start >= 2 {
				out = append(out, p[start:i])
			}
			start = i
		}
	}
	return out
}

// CostMap snapshots the grid's base cost.
func (r *Router) CostMap() *CostMap {
	g := r.grid
	cm := &CostMap{Width: g.Width(), Height: g.Height(), Layers: make([][]float64, g.Layers())}
	for l := range cm.Layers {
		plane := make([]float64, g.Width()*g.Height())
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				plane[y*g.Width()+x] = g.BaseCost(grid.Location{X: x, Y: y, Layer: l})
			}
		}
		cm.Layers[l] = plane
	}
	return cm
}
