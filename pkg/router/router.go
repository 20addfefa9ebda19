// Package router turns a placed board into routed copper.
//
// A [Router] owns one [grid.CostGrid] sized to the board's pin outline. Pad
// obstacles are painted into it by the [ObstacleProjector]; every net is then
// grown pin by pin by the [MultipinRouter], which commits each found path
// back into the grid so later nets avoid it. With [StrategyRipUp] the
// [RipUpReRoute] loop revisits every net a fixed number of times and keeps
// the cheapest full solution seen.
//
// Routing is strictly sequential: each net's search depends on the costs
// left by the nets routed before it. A Router must not be used from more
// than one goroutine; independent boards can be routed concurrently with
// separate Routers.
//
// Failures are recovered per net. A net whose pins cannot be resolved is
// skipped, an unreachable pin leaves its net partially routed, and the run
// continues with the remaining nets.
package router

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/errors"
	"github.com/matzehuels/gridroute/pkg/grid"
	"github.com/matzehuels/gridroute/pkg/observability"
)

// Router routes one board.
type Router struct {
	board      *board.Board
	opts       Options
	logger     *log.Logger
	mapper     *Mapper
	grid       *grid.CostGrid
	projector  *ObstacleProjector
	multipin   *MultipinRouter
	netclasses map[int]GridNetclass
}

// New sets up the grid and mapping structures for b.
func New(b *board.Board, opts Options) (*Router, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBoard, err, "invalid board")
	}
	if len(b.Netclasses) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidNetclass, "board has no netclasses")
	}
	bb, ok := b.BoundaryByPins()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidBoard, "board has no pads")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	mapper, err := NewMapper(bb, opts.InputScale, opts.EnlargeBoundary, opts.GridFactor)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "invalid grid transform")
	}
	w, h := mapper.GridSize()
	g, err := grid.New(w, h, b.NumCopperLayers(),
		grid.WithViaStepCost(opts.ViaStepCost),
		grid.WithBlockThreshold(opts.BlockThreshold),
		grid.WithMaxCells(opts.MaxCells),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "cannot allocate a %dx%dx%d grid; lower the input scale", w, h, b.NumCopperLayers())
	}
	logger.Debug("routing outline", "min_x", bb.MinX, "min_y", bb.MinY, "max_x", bb.MaxX, "max_y", bb.MaxY)
	logger.Info("grid allocated", "width", w, "height", h, "layers", g.Layers())

	netclasses := make(map[int]GridNetclass, len(b.Netclasses))
	for _, nc := range b.Netclasses {
		gnc := NewGridNetclass(nc, mapper)
		netclasses[nc.ID] = gnc
		logger.Debug("grid netclass", "id", nc.ID, "name", nc.Name,
			"clearance", gnc.Clearance, "trace_width", gnc.TraceWidth, "via_diameter", gnc.ViaDiameter)
	}

	return &Router{
		board:  b,
		opts:   opts,
		logger: logger,
		mapper: mapper,
		grid:   g,
		projector: &ObstacleProjector{
			Grid:   g,
			Board:  b,
			Mapper: mapper,
			Cost:   opts.PinObstacleCost,
			Relief: ToBase | ToVia,
		},
		multipin: &MultipinRouter{
			Grid:           g,
			TraceCost:      opts.TraceCost,
			ViaCost:        opts.ViaCost,
			FailurePenalty: opts.FailurePenalty,
			Logger:         logger,
		},
		netclasses: netclasses,
	}, nil
}

// Grid returns the router's cost grid.
func (r *Router) Grid() *grid.CostGrid { return r.grid }

// Mapper returns the board-to-grid transform.
func (r *Router) Mapper() *Mapper { return r.mapper }

// Board returns the board being routed.
func (r *Router) Board() *board.Board { return r.board }

// Strategy returns the configured strategy.
func (r *Router) Strategy() Strategy { return r.opts.Strategy }

// Route runs the configured strategy. It is meant to be called once per
// Router; the grid keeps the committed routes afterwards.
func (r *Router) Route(ctx context.Context) (sol *Solution, err error) {
	start := time.Now()
	hooks := observability.Router()
	hooks.OnRouteStart(ctx, string(r.opts.Strategy), len(r.board.Nets))
	defer func() {
		total := 0.0
		if sol != nil {
			total = sol.Total
		}
		hooks.OnRouteComplete(ctx, string(r.opts.Strategy), total, time.Since(start), err)
	}()

	obstacles := ToBase | ToVia
	if r.opts.Strategy != StrategySimple {
		obstacles |= ToViaForbidden
	}
	pads := r.projector.ProjectAll(obstacles)
	r.logger.Debug("projected pad obstacles", "pads", pads)

	routes, err := r.routeAll(ctx)
	if err != nil {
		return nil, err
	}
	total := totalCost(routes)
	r.logger.Info("routed all nets", "nets", len(routes), "cost", total)

	if r.opts.Strategy != StrategyRipUp || r.opts.Passes == 0 {
		return &Solution{Routes: cloneRoutes(routes), Total: total, Baseline: total, BestPass: -1}, nil
	}

	order := make([]int, len(routes))
	for i, rt := range routes {
		order[i] = rt.NetID
	}
	ripup := &RipUpReRoute{
		Router:         r.multipin,
		Projector:      r.projector,
		Passes:         r.opts.Passes,
		StopWhenStable: r.opts.StopWhenStable,
		Order:          order,
		OnPass:         r.opts.OnPass,
		Logger:         r.logger,
	}
	return ripup.Run(ctx, routes)
}

// routeAll builds and routes every net with at least two pins, in board order.
func (r *Router) routeAll(ctx context.Context) ([]*MultipinRoute, error) {
	hooks := observability.Router()
	var routes []*MultipinRoute
	for i := range r.board.Nets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		net := &r.board.Nets[i]
		if len(net.Pins) < 2 {
			continue
		}
		route, err := r.newRoute(net)
		if err != nil {
			r.logger.Warn("skipping net", "net", net.Name, "id", net.ID, "err", err)
			continue
		}
		err = r.projector.WithRelieved(route.PinRefs, func() error {
			return r.multipin.Route(route)
		})
		if err != nil {
			r.logger.Warn("net partially routed", "net", net.Name, "id", net.ID, "err", errors.UserMessage(err))
		} else {
			r.logger.Debug("routed net", "net", net.Name, "id", net.ID,
				"cost", route.Cost, "wirelength", route.Wirelength(), "vias", route.ViaCount())
		}
		hooks.OnNetRouted(ctx, net.ID, -1, route.Cost, route.FailedPins)
		routes = append(routes, route)
	}
	return routes, nil
}

// newRoute resolves the net's pins to grid terminals and its netclass to
// grid rules. An unknown netclass falls back to the first one.
func (r *Router) newRoute(net *board.Net) (*MultipinRoute, error) {
	nc, ok := r.netclasses[net.Netclass]
	if !ok {
		first := r.board.Netclasses[0].ID
		r.logger.Warn("invalid netclass, using first netclass",
			"net", net.Name, "netclass", net.Netclass, "fallback", first)
		nc = r.netclasses[first]
	}
	route := NewMultipinRoute(net.ID, nc.ID, nc.Rules())
	for _, ref := range net.Pins {
		inst, pad, err := r.board.Pad(ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidNet, err, "net %d", net.ID)
		}
		route.AddPin(ref, r.terminals(inst, pad))
	}
	return route, nil
}

// terminals returns the grid locations a pin can be entered from. The
// simple strategy only routes on the first layer.
func (r *Router) terminals(inst *board.Instance, pad *board.Pad) []grid.Location {
	pos := board.PadPosition(inst, pad)
	if r.opts.Strategy == StrategySimple {
		return []grid.Location{r.mapper.ToLocation(pos, 0, RoundNearest)}
	}
	layers := padLayers(r.board, inst, pad)
	out := make([]grid.Location, 0, len(layers))
	for _, l := range layers {
		out = append(out, r.mapper.ToLocation(pos, l, RoundNearest))
	}
	return out
}

// LayerName returns the board name of grid layer l.
func (r *Router) LayerName(l int) string {
	if l < 0 || l >= len(r.board.Layers) {
		return fmt.Sprintf("L%d", l)
	}
	return r.board.Layers[l].Name
}
