package router

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridroute/pkg/errors"
)

// Strategy selects how nets are routed.
type Strategy string

const (
	// StrategySimple projects pad obstacles and routes every net once on the
	// first layer.
	StrategySimple Strategy = "simple"
	// StrategyAvoidance routes on every layer a pad occupies and keeps vias
	// out from under through-hole pads.
	StrategyAvoidance Strategy = "avoidance"
	// StrategyRipUp runs the avoidance strategy and refines it with rip-up
	// and reroute passes.
	StrategyRipUp Strategy = "ripup"
)

// Strategies lists every strategy in documentation order.
var Strategies = []Strategy{StrategySimple, StrategyAvoidance, StrategyRipUp}

// StrategyNames returns the strategy names as strings.
func StrategyNames() []string {
	out := make([]string, len(Strategies))
	for i, s := range Strategies {
		out[i] = string(s)
	}
	return out
}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	if err := errors.ValidateChoice(errors.ErrCodeInvalidStrategy, "strategy", s, StrategyNames()); err != nil {
		return "", err
	}
	return Strategy(s), nil
}

// Default cost model.
const (
	DefaultInputScale      = 10.0
	DefaultEnlargeBoundary = 20
	DefaultPinObstacleCost = 1000.0
	DefaultTraceCost       = 100.0
	DefaultViaCost         = 100.0
	DefaultViaStepCost     = 10.0
	DefaultFailurePenalty  = 100000.0
)

// Options configures a Router.
type Options struct {
	Strategy Strategy

	InputScale      float64 // grid cells per board unit
	EnlargeBoundary int     // grid cells added around the pin outline
	GridFactor      float64 // board units per grid cell on output; 0 = 1/InputScale

	PinObstacleCost float64
	TraceCost       float64
	ViaCost         float64
	ViaStepCost     float64
	FailurePenalty  float64
	BlockThreshold  float64 // 0 disables blocking

	Passes         int
	StopWhenStable bool

	// MaxCells caps the routing grid size; 0 means grid.DefaultMaxCells.
	MaxCells int

	// OnPass receives each rip-up pass. See RipUpReRoute.OnPass.
	OnPass func(PassStats, []*MultipinRoute)

	Logger *log.Logger
}

// DefaultOptions returns the rip-up strategy with the default cost model.
func DefaultOptions() Options {
	return Options{
		Strategy:        StrategyRipUp,
		InputScale:      DefaultInputScale,
		EnlargeBoundary: DefaultEnlargeBoundary,
		PinObstacleCost: DefaultPinObstacleCost,
		TraceCost:       DefaultTraceCost,
		ViaCost:         DefaultViaCost,
		ViaStepCost:     DefaultViaStepCost,
		FailurePenalty:  DefaultFailurePenalty,
		Passes:          DefaultPasses,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	if err := errors.ValidatePositive("input scale", o.InputScale); err != nil {
		return err
	}
	checks := []struct {
		what string
		v    float64
	}{
		{"enlarge boundary", float64(o.EnlargeBoundary)},
		{"grid factor", o.GridFactor},
		{"pin obstacle cost", o.PinObstacleCost},
		{"trace cost", o.TraceCost},
		{"via cost", o.ViaCost},
		{"via step cost", o.ViaStepCost},
		{"failure penalty", o.FailurePenalty},
		{"block threshold", o.BlockThreshold},
		{"passes", float64(o.Passes)},
		{"max cells", float64(o.MaxCells)},
	}
	for _, c := range checks {
		if err := errors.ValidateNonNegative(c.what, c.v); err != nil {
			return err
		}
	}
	return nil
}
