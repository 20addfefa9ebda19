package router

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridroute/pkg/observability"
)

// DefaultPasses is the number of rip-up passes when none is configured.
const DefaultPasses = 5

// PassStats describes one rip-up pass.
type PassStats struct {
	Pass     int           `json:"pass"`
	Total    float64       `json:"total"`
	Best     float64       `json:"best"`
	Improved bool          `json:"improved"`
	Duration time.Duration `json:"duration"`
}

// Solution is a full set of net routes and its total cost.
type Solution struct {
	Routes   []*MultipinRoute `json:"routes"`
	Total    float64          `json:"total"`
	Baseline float64          `json:"baseline"`
	BestPass int              `json:"best_pass"` // -1 when the baseline was never beaten
	Passes   []PassStats      `json:"passes,omitempty"`
}

// RipUpReRoute refines a routed solution by repeatedly ripping up and
// regrowing each net against the current state of all others.
//
// Nets are visited in route order every pass. After each pass the total is
// compared against the best seen so far and a strictly lower total replaces
// the best snapshot. The pre-rip-up routes are the first snapshot, so the
// result is never worse than the input.
type RipUpReRoute struct {
	Router    *MultipinRouter
	Projector *ObstacleProjector // relieves each net's own pins; may be nil

	Passes         int
	StopWhenStable bool

	// Order lists the net ids in the order the routes are expected in.
	// A mismatch is logged and the pass continues.
	Order []int

	// OnPass, when set, receives every pass's statistics and routes. The
	// routes are live; copy them to keep them.
	OnPass func(PassStats, []*MultipinRoute)

	Logger *log.Logger
}

func (r *RipUpReRoute) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}

// Run refines routes in place and returns the best solution seen. The
// returned routes are snapshots independent of the grid state.
//
// Cancellation is checked between nets; a cancelled run returns the best
// solution so far together with ctx.Err().
func (r *RipUpReRoute) Run(ctx context.Context, routes []*MultipinRoute) (*Solution, error) {
	logger := r.logger()
	hooks := observability.Router()

	total := totalCost(routes)
	best := &Solution{
		Routes:   cloneRoutes(routes),
		Total:    total,
		Baseline: total,
		BestPass: -1,
	}
	logger.Info("rip-up baseline", "nets", len(routes), "cost", total)

	var prev float64
	for pass := 0; pass < r.Passes; pass++ {
		start := time.Now()
		prev = total
		for i, route := range routes {
			if err := ctx.Err(); err != nil {
				return best, err
			}
			if i < len(r.Order) && r.Order[i] != route.NetID {
				logger.Warn("inconsistent net order", "index", i, "expected", r.Order[i], "got", route.NetID)
			}
			if len(route.Pins) < 2 {
				continue
			}

			total -= route.Cost
			err := r.reroute(route)
			total += route.Cost
			if err != nil {
				logger.Debug("reroute incomplete", "pass", pass, "net", route.NetID, "err", err)
			}
			hooks.OnNetRouted(ctx, route.NetID, pass, route.Cost, route.FailedPins)
		}

		stats := PassStats{Pass: pass, Total: total, Duration: time.Since(start)}
		if total < best.Total {
			best.Routes = cloneRoutes(routes)
			best.Total = total
			best.BestPass = pass
			stats.Improved = true
			logger.Info("new best solution", "pass", pass, "cost", total)
		}
		stats.Best = best.Total
		best.Passes = append(best.Passes, stats)
		logger.Debug("rip-up pass complete", "pass", pass, "cost", total, "best", best.Total, "duration", stats.Duration)
		hooks.OnPassComplete(ctx, pass, total, best.Total)
		if r.OnPass != nil {
			r.OnPass(stats, routes)
		}

		if r.StopWhenStable && total == prev {
			logger.Info("rip-up converged", "pass", pass)
			break
		}
	}
	return best, nil
}

func (r *RipUpReRoute) reroute(route *MultipinRoute) error {
	run := func() error {
		r.Router.RipUp(route)
		return r.Router.Route(route)
	}
	if r.Projector == nil {
		return run()
	}
	return r.Projector.WithRelieved(route.PinRefs, run)
}
