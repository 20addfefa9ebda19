package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/gridroute/pkg/config"
	"github.com/matzehuels/gridroute/pkg/observability"
	"github.com/matzehuels/gridroute/pkg/pipeline"
	"github.com/matzehuels/gridroute/pkg/router"
)

// routeFlags holds the route command's flags. Routing knobs left unset on
// the command line come from the config file.
type routeFlags struct {
	formats string
	outDir  string
	noCache bool
	opts    pipeline.Options
	knobs   routeKnobs
}

// routeKnobs backs the cost and grid flags; only flags that were changed
// reach the pipeline options.
type routeKnobs struct {
	inputScale      float64
	enlargeBoundary int
	gridFactor      float64
	pinObstacleCost float64
	traceCost       float64
	viaCost         float64
	viaStepCost     float64
	failurePenalty  float64
	blockThreshold  float64
	passes          int
	stopWhenStable  bool
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var f routeFlags

	cmd := &cobra.Command{
		Use:   "route [board.kicad_pcb]",
		Short: "Route a board and write the results",
		Long: `Route every net of a KiCad (or JSON) board.

The routed tracks and vias are appended to a copy of the input board named
<board>.routed.<strategy>.kicad_pcb. Additional outputs are selected with
--format. Results are cached, so rerunning with unchanged inputs is instant.

Strategies:
  simple      pad obstacles only; nets are routed once in board order
  avoidance   also forbids vias through pads
  ripup       avoidance, then rip up and reroute every net for --passes rounds`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := f.resolve(cmd.Flags(), cfg)
			opts.BoardPath = args[0]
			return c.runRoute(cmd.Context(), cfg, opts, f.outDir, f.noCache)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.opts.Strategy, "strategy", "s", pipeline.DefaultStrategy, "routing strategy: simple, avoidance, ripup")
	flags.StringVarP(&f.formats, "format", "f", "", "output format(s): kicad (default), json, svg, costmap, ratsnest, dot (comma-separated)")
	flags.StringVarP(&f.outDir, "output-dir", "o", "", "directory for outputs (default: next to the board)")
	flags.StringVar(&f.opts.Name, "name", "", "board name used for output files")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	flags.BoolVar(&f.opts.Refresh, "refresh", false, "reroute even when a cached result exists")

	k := &f.knobs
	flags.Float64Var(&k.inputScale, "input-scale", config.DefaultInputScale, "grid cells per board unit")
	flags.IntVar(&k.enlargeBoundary, "enlarge-boundary", config.DefaultEnlargeBoundary, "extra grid cells around the pin extents")
	flags.Float64Var(&k.gridFactor, "grid-factor", 0, "board units per grid cell on output (default 1/input-scale)")
	flags.Float64Var(&k.pinObstacleCost, "pin-obstacle-cost", config.DefaultPinObstacleCost, "cost added to cells covered by pads")
	flags.Float64Var(&k.traceCost, "trace-cost", config.DefaultTraceCost, "cost added to cells occupied by routed copper")
	flags.Float64Var(&k.viaCost, "via-cost", config.DefaultViaCost, "cost added around placed vias")
	flags.Float64Var(&k.viaStepCost, "via-step-cost", config.DefaultViaStepCost, "cost of one layer change")
	flags.Float64Var(&k.failurePenalty, "failure-penalty", config.DefaultFailurePenalty, "cost charged per unconnected pin")
	flags.Float64Var(&k.blockThreshold, "block-threshold", 0, "treat cells at or above this cost as blocked (0 disables)")
	flags.IntVar(&k.passes, "passes", config.DefaultPasses, "rip-up and reroute passes (0 keeps the first routing)")
	flags.BoolVar(&k.stopWhenStable, "stop-when-stable", false, "stop rip-up once a pass leaves the cost unchanged")

	flags.IntVar(&f.opts.CostMapLayer, "cost-map-layer", 0, "layer index drawn by the costmap format")
	flags.BoolVar(&f.opts.DumpPasses, "dump-passes", false, "write a KiCad snapshot after every rip-up pass")

	return cmd
}

// resolve merges flags over the config. A flag wins only when it was set
// explicitly; the config fills what is left.
func (f *routeFlags) resolve(flags *pflag.FlagSet, cfg *config.Config) pipeline.Options {
	var opts pipeline.Options
	k := f.knobs
	setFloat := func(name string, dst **float64, v float64) {
		if flags.Changed(name) {
			*dst = pipeline.Ptr(v)
		}
	}
	setInt := func(name string, dst **int, v int) {
		if flags.Changed(name) {
			*dst = pipeline.Ptr(v)
		}
	}
	setFloat("input-scale", &opts.InputScale, k.inputScale)
	setInt("enlarge-boundary", &opts.EnlargeBoundary, k.enlargeBoundary)
	setFloat("grid-factor", &opts.GridFactor, k.gridFactor)
	setFloat("pin-obstacle-cost", &opts.PinObstacleCost, k.pinObstacleCost)
	setFloat("trace-cost", &opts.TraceCost, k.traceCost)
	setFloat("via-cost", &opts.ViaCost, k.viaCost)
	setFloat("via-step-cost", &opts.ViaStepCost, k.viaStepCost)
	setFloat("failure-penalty", &opts.FailurePenalty, k.failurePenalty)
	setFloat("block-threshold", &opts.BlockThreshold, k.blockThreshold)
	setInt("passes", &opts.Passes, k.passes)
	if flags.Changed("stop-when-stable") {
		opts.StopWhenStable = pipeline.Ptr(k.stopWhenStable)
	}
	opts.ApplyConfig(cfg)

	opts.Strategy = f.opts.Strategy
	opts.Name = f.opts.Name
	opts.Refresh = f.opts.Refresh
	opts.CostMapLayer = f.opts.CostMapLayer
	opts.DumpPasses = f.opts.DumpPasses
	opts.Formats = pipeline.ParseFormats(f.formats)
	return opts
}

func (c *CLI) runRoute(ctx context.Context, cfg *config.Config, opts pipeline.Options, outDir string, noCache bool) error {
	runner, err := c.newRunner(ctx, cfg, noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if outDir == "" {
		outDir = filepath.Dir(opts.BoardPath)
	}

	opts.SetRouteDefaults()
	base := filepath.Base(opts.BoardPath)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Routing %s...", base))
	if opts.Strategy == string(router.StrategyRipUp) {
		observability.SetRouterHooks(passReporter{spinner: spinner, prefix: "Routing " + base + ":", passes: *opts.Passes})
		defer observability.Reset()
	}
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Routing failed")
		return err
	}
	spinner.Stop()

	sum := res.Routing.Summary
	printSuccess("Routed %s with %s", StyleHighlight.Render(res.Board.Name), res.Routing.Strategy)
	printRouteStats(sum, res.CacheInfo.RouteHit)
	for _, n := range res.Routing.Nets {
		if n.FailedPins > 0 {
			printWarning("net %s: %d of %d pins unconnected", n.Name, n.FailedPins, n.Pins)
		}
	}
	if sum.FailedPins > 0 {
		printNextStep("Inspect unrouted nets", fmt.Sprintf("%s ratsnest %s -s %s", appName, opts.BoardPath, res.Routing.Strategy))
	}

	written, err := writeArtifacts(artifactWriteParams{
		dir:       outDir,
		name:      res.Board.Name,
		strategy:  res.Routing.Strategy,
		layer:     opts.CostMapLayer,
		artifacts: res.Artifacts,
		passes:    res.PassArtifacts,
	})
	if err != nil {
		return err
	}
	for _, path := range written {
		printFile(path)
	}
	if res.CacheInfo.RenderHit {
		printDetail("outputs served from cache")
	}
	return nil
}

// artifactWriteParams describes one run's files.
type artifactWriteParams struct {
	dir       string
	name      string
	strategy  router.Strategy
	layer     int
	artifacts map[string][]byte
	passes    map[int][]byte
}

// writeArtifacts writes every artifact and pass snapshot and returns the
// paths in a stable order.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	formats := make([]string, 0, len(p.artifacts))
	for f := range p.artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	var written []string
	for _, format := range formats {
		path := filepath.Join(p.dir, pipeline.ArtifactName(p.name, p.strategy, format, p.layer))
		if err := writeFile(path, p.artifacts[format]); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	passes := make([]int, 0, len(p.passes))
	for pass := range p.passes {
		passes = append(passes, pass)
	}
	sort.Ints(passes)
	for _, pass := range passes {
		path := filepath.Join(p.dir, pipeline.PassArtifactName(p.name, p.strategy, pass))
		if err := writeFile(path, p.passes[pass]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
