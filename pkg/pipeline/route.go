package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/router"
	"github.com/matzehuels/gridroute/pkg/sink"
)

// Route runs the configured strategy on b and exports the result. With
// DumpPasses set, a KiCad snapshot of every rip-up pass is returned keyed
// by pass number. A cancelled rip-up still returns the best result found.
func Route(ctx context.Context, b *board.Board, opts Options) (*router.Result, map[int][]byte, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	ropts := opts.RouterOptions()

	var (
		r      *router.Router
		passes map[int][]byte
	)
	if opts.DumpPasses {
		passes = make(map[int][]byte)
		ropts.OnPass = func(ps router.PassStats, routes []*router.MultipinRoute) {
			snap := r.Export(&router.Solution{Routes: routes, Total: ps.Total, BestPass: -1})
			data, err := sink.RenderKiCad(b, snap)
			if err != nil {
				opts.Logger.Warn("pass snapshot failed", "pass", ps.Pass, "err", err)
				return
			}
			passes[ps.Pass] = data
		}
	}

	r, err := router.New(b, ropts)
	if err != nil {
		return nil, nil, err
	}
	sol, err := r.Route(ctx)
	if sol == nil {
		return nil, nil, err
	}
	res := r.Export(sol)
	if opts.NeedsCostMap() {
		res.CostMap = r.CostMap()
	}
	if err != nil {
		return res, passes, fmt.Errorf("routing stopped early: %w", err)
	}
	return res, passes, nil
}
