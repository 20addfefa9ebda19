// Package config loads router settings from a TOML file.
//
// Every field is optional. Unset fields fall back to the defaults returned
// by the Get* accessors, so partial files are safe:
//
//	[grid]
//	input_scale = 20      # grid cells per millimetre
//
//	[ripup]
//	passes = 8
//
// Command-line flags are applied on top of the loaded values by the CLI.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gridroute/pkg/errors"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "gridroute.toml"

// Defaults. Costs are whole numbers so that adding and later subtracting
// them restores grid cells exactly.
const (
	DefaultInputScale      = 10.0
	DefaultEnlargeBoundary = 20
	DefaultPinObstacleCost = 1000.0
	DefaultTraceCost       = 100.0
	DefaultViaCost         = 100.0
	DefaultViaStepCost     = 10.0
	DefaultFailurePenalty  = 100000.0
	DefaultPasses          = 5
	DefaultMaxCells        = 1 << 24
	DefaultCacheBackend    = "file"
	DefaultRedisAddr       = "localhost:6379"
	DefaultCacheTTL        = 7 * 24 * time.Hour
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the root of the TOML document.
type Config struct {
	Grid  Grid  `toml:"grid"`
	Cost  Cost  `toml:"cost"`
	RipUp RipUp `toml:"ripup"`
	Cache Cache `toml:"cache"`
}

// Grid holds the board-to-grid transform parameters.
type Grid struct {
	InputScale      *float64 `toml:"input_scale,omitempty"`
	EnlargeBoundary *int     `toml:"enlarge_boundary,omitempty"`
	GridFactor      *float64 `toml:"grid_factor,omitempty"`
	MaxCells        *int     `toml:"max_cells,omitempty"` // refuse larger grids
}

// Cost holds the cost model constants.
type Cost struct {
	PinObstacleCost *float64 `toml:"pin_obstacle_cost,omitempty"`
	TraceCost       *float64 `toml:"trace_cost,omitempty"`
	ViaCost         *float64 `toml:"via_cost,omitempty"`
	ViaStepCost     *float64 `toml:"via_step_cost,omitempty"`
	FailurePenalty  *float64 `toml:"failure_penalty,omitempty"`
	BlockThreshold  *float64 `toml:"block_threshold,omitempty"` // 0 disables blocking
}

// RipUp holds the refinement loop settings.
type RipUp struct {
	Passes         *int  `toml:"passes,omitempty"`
	StopWhenStable *bool `toml:"stop_when_stable,omitempty"`
}

// Cache selects where routing results are cached.
type Cache struct {
	Backend   *string `toml:"backend,omitempty"` // file, redis or none
	Dir       *string `toml:"dir,omitempty"`
	RedisAddr *string `toml:"redis_addr,omitempty"`
	TTL       *string `toml:"ttl,omitempty"` // duration string like "24h"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// Default returns a config with every field set to its default.
func Default() *Config {
	return &Config{
		Grid: Grid{
			InputScale:      ptrFloat64(DefaultInputScale),
			EnlargeBoundary: ptrInt(DefaultEnlargeBoundary),
			GridFactor:      ptrFloat64(1 / DefaultInputScale),
			MaxCells:        ptrInt(DefaultMaxCells),
		},
		Cost: Cost{
			PinObstacleCost: ptrFloat64(DefaultPinObstacleCost),
			TraceCost:       ptrFloat64(DefaultTraceCost),
			ViaCost:         ptrFloat64(DefaultViaCost),
			ViaStepCost:     ptrFloat64(DefaultViaStepCost),
			FailurePenalty:  ptrFloat64(DefaultFailurePenalty),
			BlockThreshold:  ptrFloat64(0),
		},
		RipUp: RipUp{
			Passes:         ptrInt(DefaultPasses),
			StopWhenStable: ptrBool(false),
		},
		Cache: Cache{
			Backend:   ptrString(DefaultCacheBackend),
			Dir:       ptrString(""),
			RedisAddr: ptrString(DefaultRedisAddr),
			TTL:       ptrString(DefaultCacheTTL.String()),
		},
	}
}

// Load reads a TOML config file. Unknown keys are rejected so that typos do
// not silently fall back to defaults.
func Load(path string) (*Config, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".toml" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "config file must have .toml extension, got %q", ext)
	}
	var cfg Config
	md, err := toml.DecodeFile(clean, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", clean)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse config %s", clean)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists and returns defaults otherwise.
// An empty path looks for DefaultFileName in the working directory.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			return &Config{}, nil
		}
		path = DefaultFileName
	}
	return Load(path)
}

// Write encodes cfg as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if err := errors.ValidatePositive("grid.input_scale", c.GetInputScale()); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("grid.enlarge_boundary", float64(c.GetEnlargeBoundary())); err != nil {
		return err
	}
	if err := errors.ValidatePositive("grid.grid_factor", c.GetGridFactor()); err != nil {
		return err
	}
	if err := errors.ValidatePositive("grid.max_cells", float64(c.GetMaxCells())); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"cost.pin_obstacle_cost": c.GetPinObstacleCost(),
		"cost.trace_cost":        c.GetTraceCost(),
		"cost.via_cost":          c.GetViaCost(),
		"cost.via_step_cost":     c.GetViaStepCost(),
		"cost.failure_penalty":   c.GetFailurePenalty(),
		"cost.block_threshold":   c.GetBlockThreshold(),
		"ripup.passes":           float64(c.GetPasses()),
	} {
		if err := errors.ValidateNonNegative(name, v); err != nil {
			return err
		}
	}
	if err := errors.ValidateChoice(errors.ErrCodeInvalidConfig, "cache.backend", c.GetCacheBackend(),
		[]string{CacheFile, CacheRedis, CacheNone}); err != nil {
		return err
	}
	if c.Cache.TTL != nil {
		if _, err := time.ParseDuration(*c.Cache.TTL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.ttl")
		}
	}
	return nil
}

// =============================================================================
// Accessors
// =============================================================================

func (c *Config) GetInputScale() float64 {
	if c.Grid.InputScale == nil {
		return DefaultInputScale
	}
	return *c.Grid.InputScale
}

func (c *Config) GetEnlargeBoundary() int {
	if c.Grid.EnlargeBoundary == nil {
		return DefaultEnlargeBoundary
	}
	return *c.Grid.EnlargeBoundary
}

// GetGridFactor defaults to the inverse of the input scale, which makes the
// grid-to-board transform the exact inverse of board-to-grid.
func (c *Config) GetGridFactor() float64 {
	if c.Grid.GridFactor == nil {
		return 1 / c.GetInputScale()
	}
	return *c.Grid.GridFactor
}

func (c *Config) GetMaxCells() int {
	if c.Grid.MaxCells == nil {
		return DefaultMaxCells
	}
	return *c.Grid.MaxCells
}

func (c *Config) GetPinObstacleCost() float64 {
	if c.Cost.PinObstacleCost == nil {
		return DefaultPinObstacleCost
	}
	return *c.Cost.PinObstacleCost
}

func (c *Config) GetTraceCost() float64 {
	if c.Cost.TraceCost == nil {
		return DefaultTraceCost
	}
	return *c.Cost.TraceCost
}

func (c *Config) GetViaCost() float64 {
	if c.Cost.ViaCost == nil {
		return DefaultViaCost
	}
	return *c.Cost.ViaCost
}

func (c *Config) GetViaStepCost() float64 {
	if c.Cost.ViaStepCost == nil {
		return DefaultViaStepCost
	}
	return *c.Cost.ViaStepCost
}

func (c *Config) GetFailurePenalty() float64 {
	if c.Cost.FailurePenalty == nil {
		return DefaultFailurePenalty
	}
	return *c.Cost.FailurePenalty
}

func (c *Config) GetBlockThreshold() float64 {
	if c.Cost.BlockThreshold == nil {
		return 0
	}
	return *c.Cost.BlockThreshold
}

func (c *Config) GetPasses() int {
	if c.RipUp.Passes == nil {
		return DefaultPasses
	}
	return *c.RipUp.Passes
}

func (c *Config) GetStopWhenStable() bool {
	if c.RipUp.StopWhenStable == nil {
		return false
	}
	return *c.RipUp.StopWhenStable
}

func (c *Config) GetCacheBackend() string {
	if c.Cache.Backend == nil {
		return DefaultCacheBackend
	}
	return *c.Cache.Backend
}

func (c *Config) GetCacheDir() string {
	if c.Cache.Dir == nil {
		return ""
	}
	return *c.Cache.Dir
}

func (c *Config) GetRedisAddr() string {
	if c.Cache.RedisAddr == nil {
		return DefaultRedisAddr
	}
	return *c.Cache.RedisAddr
}

// GetCacheTTL returns the parsed TTL; an unparsable value yields the default.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTL == nil {
		return DefaultCacheTTL
	}
	d, err := time.ParseDuration(*c.Cache.TTL)
	if err != nil {
		return DefaultCacheTTL
	}
	return d
}
