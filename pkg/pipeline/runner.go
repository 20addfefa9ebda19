package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/cache"
	"github.com/matzehuels/gridroute/pkg/observability"
	"github.com/matzehuels/gridroute/pkg/router"
	"github.com/matzehuels/gridroute/pkg/sink"
)

// Cache key types reported to observability hooks.
const (
	keyTypeRoute    = "route"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Every Execute
// builds its own router, so one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → route → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID[:8])
	opts.Logger = logger

	// Stage 1: Load
	loadStart := time.Now()
	b, data, err := Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Board = b
	result.BoardHash = cache.Hash(data)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Nets = len(b.Nets)
	result.Stats.Pins = b.PinCount()
	result.Stats.Layers = b.NumCopperLayers()

	logger.Info("loaded board",
		"board", b.Name,
		"nets", result.Stats.Nets,
		"pins", result.Stats.Pins,
		"layers", result.Stats.Layers,
		"duration", result.Stats.LoadTime)

	// Stage 2: Route
	routeStart := time.Now()
	res, passes, routeHit, err := r.RouteWithCacheInfo(ctx, b, result.BoardHash, opts)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Routing = res
	result.PassArtifacts = passes
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = routeHit

	logger.Info("routed board",
		"strategy", res.Strategy,
		"complete", fmt.Sprintf("%d/%d", res.Summary.Complete, res.Summary.Nets),
		"vias", res.Summary.Vias,
		"wirelength", res.Summary.Wirelength,
		"cost", res.Summary.Cost,
		"duration", result.Stats.RouteTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, b, result.BoardHash, res, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// RouteWithCacheInfo routes b with caching and returns cache hit info.
// Refresh and DumpPasses bypass the cache lookup; a fresh result is still
// stored for later runs.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, b *board.Board, boardHash string, opts Options) (*router.Result, map[int][]byte, bool, error) {
	r.applyLogger(&opts)
	hooks := observability.Cache()
	cacheKey := r.Keyer.RouteKey(boardHash, opts.RouteKeyOpts())

	if !opts.Refresh && !opts.DumpPasses {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			res, _, err := sink.ReadJSON(data)
			if err == nil && (res.CostMap != nil || !opts.NeedsCostMap()) {
				hooks.OnCacheHit(ctx, keyTypeRoute)
				return res, nil, true, nil
			}
			opts.Logger.Debug("cached route unusable, rerouting", "err", err)
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, keyTypeRoute)
	}

	res, passes, err := Route(ctx, b, opts)
	if err != nil {
		return nil, nil, false, err
	}

	cacheOpts := []sink.JSONOption{sink.WithJSONCompact()}
	if res.CostMap != nil {
		cacheOpts = append(cacheOpts, sink.WithJSONCostMap())
	}
	if data, err := sink.RenderJSON(res, cacheOpts...); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, opts.CacheTTL); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeRoute, len(data))
		}
	}
	return res, passes, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, b *board.Board, boardHash string, res *router.Result, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	hooks := observability.Cache()

	// Artifacts depend on the board (KiCad splices into its source) and on
	// the routed copper.
	resData, err := sink.RenderJSON(res, sink.WithJSONCompact())
	if err != nil {
		return nil, false, fmt.Errorf("serialize result for cache key: %w", err)
	}
	resultHash := cache.Hash(append([]byte(boardHash), resData...))

	allCached := true
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			allCached = false
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
			break
		}
		hooks.OnCacheHit(ctx, keyTypeArtifact)
		artifacts[format] = data
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, b, res, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, opts.CacheTTL); err == nil {
			hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
