// Package pipeline runs the load → route → render sequence shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a KiCad or JSON board from a file or inline text
//  2. Route: build a router for the board and run the selected strategy
//  3. Render: turn the routed result into the requested output formats
//
// Routing results and rendered artifacts are cached by content, so running
// the same board with the same options twice skips straight to the output.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    BoardPath: "board.kicad_pcb",
//	    Strategy:  "ripup",
//	    Formats:   []string{"kicad", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	routed := result.Artifacts["kicad"]
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/cache"
	"github.com/matzehuels/gridroute/pkg/config"
	"github.com/matzehuels/gridroute/pkg/errors"
	"github.com/matzehuels/gridroute/pkg/router"
	"github.com/matzehuels/gridroute/pkg/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultStrategy is the routing strategy used when none is given.
const DefaultStrategy = string(router.StrategyRipUp)

// Format constants for output formats.
const (
	FormatKiCad    = "kicad"
	FormatJSON     = "json"
	FormatSVG      = "svg"
	FormatCostMap  = "costmap"
	FormatRatsnest = "ratsnest"
	FormatDOT      = "dot"
)

// ValidFormats is the set of supported output formats, in help order.
var ValidFormats = []string{FormatKiCad, FormatJSON, FormatSVG, FormatCostMap, FormatRatsnest, FormatDOT}

// Board input formats.
const (
	BoardKiCad = "kicad"
	BoardJSON  = "json"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one routing run.
// This struct supports JSON serialization for API requests. A nil routing
// knob means "use the config value, else the default"; an explicit zero is
// kept.
type Options struct {
	// Load options
	BoardPath   string `json:"-"`                      // file to read (CLI)
	Board       string `json:"board,omitempty"`        // inline board text (API)
	BoardFormat string `json:"board_format,omitempty"` // kicad or json; required with Board
	Name        string `json:"name,omitempty"`         // overrides the board name

	// Route options
	Strategy        string   `json:"strategy,omitempty"`
	InputScale      *float64 `json:"input_scale,omitempty"`
	EnlargeBoundary *int     `json:"enlarge_boundary,omitempty"`
	GridFactor      *float64 `json:"grid_factor,omitempty"` // nil follows the input scale
	PinObstacleCost *float64 `json:"pin_obstacle_cost,omitempty"`
	TraceCost       *float64 `json:"trace_cost,omitempty"`
	ViaCost         *float64 `json:"via_cost,omitempty"`
	ViaStepCost     *float64 `json:"via_step_cost,omitempty"`
	FailurePenalty  *float64 `json:"failure_penalty,omitempty"`
	BlockThreshold  *float64 `json:"block_threshold,omitempty"`
	Passes          *int     `json:"passes,omitempty"`
	StopWhenStable  *bool    `json:"stop_when_stable,omitempty"`
	Refresh         bool     `json:"refresh,omitempty"`

	// MaxCells caps the routing grid. Only the config file sets it, so
	// API clients cannot raise the server's limit.
	MaxCells int `json:"-"`

	// Render options
	Formats      []string `json:"formats,omitempty"`
	CostMapLayer int      `json:"cost_map_layer,omitempty"`
	DumpPasses   bool     `json:"dump_passes,omitempty"` // KiCad snapshot after every rip-up pass

	// Runtime options (not serialized)
	CacheTTL time.Duration `json:"-"`
	Logger   *log.Logger   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and JSON output.
	RunID string

	// Board is the loaded board.
	Board *board.Board

	// BoardHash is the content hash of the board input.
	BoardHash string

	// Routing is the exported routing result.
	Routing *router.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// PassArtifacts holds KiCad snapshots keyed by rip-up pass when
	// DumpPasses is set.
	PassArtifacts map[int][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nets       int
	Pins       int
	Layers     int
	LoadTime   time.Duration
	RouteTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RouteHit  bool // Whether the routing result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return errors.ValidateChoice(errors.ErrCodeInvalidFormat, "format", format, ValidFormats)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated list, trimming blanks.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ApplyConfig copies every routing knob cfg sets into the options that are
// still nil. Knobs cfg leaves unset stay nil for SetRouteDefaults, so the
// grid factor keeps following the input scale unless cfg names one.
func (o *Options) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	fill(&o.InputScale, cfg.Grid.InputScale)
	fill(&o.EnlargeBoundary, cfg.Grid.EnlargeBoundary)
	fill(&o.GridFactor, cfg.Grid.GridFactor)
	fill(&o.PinObstacleCost, cfg.Cost.PinObstacleCost)
	fill(&o.TraceCost, cfg.Cost.TraceCost)
	fill(&o.ViaCost, cfg.Cost.ViaCost)
	fill(&o.ViaStepCost, cfg.Cost.ViaStepCost)
	fill(&o.FailurePenalty, cfg.Cost.FailurePenalty)
	fill(&o.BlockThreshold, cfg.Cost.BlockThreshold)
	fill(&o.Passes, cfg.RipUp.Passes)
	fill(&o.StopWhenStable, cfg.RipUp.StopWhenStable)
	if o.MaxCells == 0 && cfg.Grid.MaxCells != nil {
		o.MaxCells = *cfg.Grid.MaxCells
	}
	if o.CacheTTL == 0 && cfg.Cache.TTL != nil {
		o.CacheTTL = cfg.GetCacheTTL()
	}
}

// fill copies src into a nil *dst.
func fill[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

// value dereferences p, yielding the zero value for nil.
func value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Ptr returns a pointer to v, for setting routing knobs:
//
//	opts.Passes = pipeline.Ptr(0)
func Ptr[T any](v T) *T { return &v }

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetRouteDefaults()
	if _, err := router.ParseStrategy(o.Strategy); err != nil {
		return err
	}
	if err := o.RouterOptions().Validate(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.CostMapLayer < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cost_map_layer must not be negative")
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that exactly one board source is given.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.BoardPath == "" && o.Board == "":
		return errors.New(errors.ErrCodeInvalidInput, "board or board path is required")
	case o.BoardPath != "" && o.Board != "":
		return errors.New(errors.ErrCodeInvalidInput, "board and board path are mutually exclusive")
	case o.Board != "":
		if err := errors.ValidateChoice(errors.ErrCodeInvalidFormat, "board_format", o.BoardFormat, []string{BoardKiCad, BoardJSON}); err != nil {
			return err
		}
	}
	if o.Name != "" {
		if err := errors.ValidateFilename(o.Name); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRouteDefaults fills every routing knob that is still nil. It is
// idempotent and never touches a knob that was set, zero included.
func (o *Options) SetRouteDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	defaults := config.Default()
	defaults.Grid.GridFactor = nil
	o.ApplyConfig(defaults)
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatKiCad}
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.TTLArtifact
	}
}

// RouterOptions converts the routing fields into router options.
func (o *Options) RouterOptions() router.Options {
	return router.Options{
		Strategy:        router.Strategy(o.Strategy),
		InputScale:      value(o.InputScale),
		EnlargeBoundary: value(o.EnlargeBoundary),
		GridFactor:      value(o.GridFactor),
		PinObstacleCost: value(o.PinObstacleCost),
		TraceCost:       value(o.TraceCost),
		ViaCost:         value(o.ViaCost),
		ViaStepCost:     value(o.ViaStepCost),
		FailurePenalty:  value(o.FailurePenalty),
		BlockThreshold:  value(o.BlockThreshold),
		Passes:          value(o.Passes),
		StopWhenStable:  value(o.StopWhenStable),
		MaxCells:        o.MaxCells,
		Logger:          o.Logger,
	}
}

// RouteKeyOpts returns cache key options for routing.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{
		Strategy:        o.Strategy,
		InputScale:      value(o.InputScale),
		EnlargeBoundary: value(o.EnlargeBoundary),
		GridFactor:      value(o.GridFactor),
		PinObstacleCost: value(o.PinObstacleCost),
		TraceCost:       value(o.TraceCost),
		ViaCost:         value(o.ViaCost),
		ViaStepCost:     value(o.ViaStepCost),
		FailurePenalty:  value(o.FailurePenalty),
		BlockThreshold:  value(o.BlockThreshold),
		Passes:          value(o.Passes),
		StopWhenStable:  value(o.StopWhenStable),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	if format == FormatCostMap {
		k.Layer = o.CostMapLayer
	}
	return k
}

// NeedsCostMap reports whether any requested format reads the cost map.
func (o *Options) NeedsCostMap() bool {
	for _, f := range o.Formats {
		if f == FormatCostMap {
			return true
		}
	}
	return false
}

// ArtifactName returns the file name for a rendered format.
func ArtifactName(name string, strategy router.Strategy, format string, layer int) string {
	switch format {
	case FormatKiCad:
		return sink.KiCadFileName(name, strategy)
	case FormatJSON:
		return fmt.Sprintf("%s.routed.%s.json", name, strategy)
	case FormatSVG:
		return fmt.Sprintf("%s.routed.%s.svg", name, strategy)
	case FormatCostMap:
		return fmt.Sprintf("%s.cost.layer%d.png", name, layer)
	case FormatRatsnest:
		return name + ".ratsnest.svg"
	case FormatDOT:
		return name + ".ratsnest.dot"
	}
	return name + "." + format
}

// PassArtifactName returns the file name for a rip-up pass snapshot.
func PassArtifactName(name string, strategy router.Strategy, pass int) string {
	return fmt.Sprintf("%s.routed.%s.pass%d.kicad_pcb", name, strategy, pass)
}
