// Package cache stores routing results and rendered artifacts by content key.
//
// Routing a board is deterministic for a given board and option set, so the
// pipeline keys each stage on a hash of its inputs and reuses earlier work:
//
//	c, _ := cache.NewFileCache(dir)
//	k := cache.NewDefaultKeyer()
//	key := k.RouteKey(cache.Hash(boardData), cache.RouteKeyOpts{Strategy: "ripup"})
//	if data, hit, _ := c.Get(ctx, key); hit {
//	    // decode data
//	}
//
// Three backends are provided: [FileCache] for the CLI, [RedisCache] for the
// HTTP server and [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Default TTLs per stage.
const (
	TTLRoute    = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// RouteKeyOpts lists every option that changes a routing result.
type RouteKeyOpts struct {
	Strategy        string  `json:"strategy"`
	InputScale      float64 `json:"input_scale"`
	EnlargeBoundary int     `json:"enlarge_boundary"`
	GridFactor      float64 `json:"grid_factor"`
	PinObstacleCost float64 `json:"pin_obstacle_cost"`
	TraceCost       float64 `json:"trace_cost"`
	ViaCost         float64 `json:"via_cost"`
	ViaStepCost     float64 `json:"via_step_cost"`
	FailurePenalty  float64 `json:"failure_penalty"`
	BlockThreshold  float64 `json:"block_threshold"`
	Passes          int     `json:"passes"`
	StopWhenStable  bool    `json:"stop_when_stable"`
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Layer  int    `json:"layer,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// RouteKey keys a routing result by board hash and routing options.
	RouteKey(boardHash string, opts RouteKeyOpts) string

	// ArtifactKey keys a rendered artifact by result hash and format.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) RouteKey(boardHash string, opts RouteKeyOpts) string {
	return hashKey("route", boardHash, opts)
}

func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultHash, opts)
}
