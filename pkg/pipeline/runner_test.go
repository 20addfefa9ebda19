package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/board/boardtest"
	"github.com/matzehuels/gridroute/pkg/cache"
	"github.com/matzehuels/gridroute/pkg/errors"
	bio "github.com/matzehuels/gridroute/pkg/io"
	"github.com/matzehuels/gridroute/pkg/observability"
)

type countingHooks struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	sets   map[string]int
}

func newCountingHooks() *countingHooks {
	return &countingHooks{hits: map[string]int{}, misses: map[string]int{}, sets: map[string]int{}}
}

func (h *countingHooks) OnCacheHit(_ context.Context, k string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[k]++
}

func (h *countingHooks) OnCacheMiss(_ context.Context, k string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[k]++
}

func (h *countingHooks) OnCacheSet(_ context.Context, k string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sets[k]++
}

// writeBoard stores the crossing test board as JSON and returns its path.
func writeBoard(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crossing.json")
	require.NoError(t, bio.ExportJSON(boardtest.Crossing(), path))
	return path
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(fc, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunnerExecuteCaches(t *testing.T) {
	hooks := newCountingHooks()
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{
		BoardPath: writeBoard(t),
		Strategy:  "avoidance",
		Formats:   []string{FormatKiCad, FormatJSON, FormatSVG, FormatDOT},
	}

	first, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.RouteHit)
	assert.False(t, first.CacheInfo.RenderHit)
	assert.NotEmpty(t, first.RunID)
	assert.Equal(t, "crossing", first.Board.Name)
	assert.Equal(t, 2, first.Stats.Nets)
	assert.Equal(t, 4, first.Stats.Pins)
	assert.Equal(t, 2, first.Stats.Layers)
	assert.Equal(t, 2, first.Routing.Summary.Complete)
	for _, f := range opts.Formats {
		assert.NotEmpty(t, first.Artifacts[f], f)
	}

	second, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.RouteHit)
	assert.True(t, second.CacheInfo.RenderHit)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.BoardHash, second.BoardHash)
	assert.Equal(t, first.Routing.Summary, second.Routing.Summary)
	for _, f := range opts.Formats {
		assert.Equal(t, first.Artifacts[f], second.Artifacts[f], f)
	}

	assert.Equal(t, 1, hooks.hits[keyTypeRoute])
	assert.Equal(t, 1, hooks.misses[keyTypeRoute])
	assert.Equal(t, 1, hooks.sets[keyTypeRoute])
	assert.Equal(t, len(opts.Formats), hooks.hits[keyTypeArtifact])
	assert.Equal(t, len(opts.Formats), hooks.sets[keyTypeArtifact])
}

func TestRunnerExecuteRefresh(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{BoardPath: writeBoard(t), Strategy: "simple"}

	_, err := r.Execute(ctx, opts)
	require.NoError(t, err)

	opts.Refresh = true
	res, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.False(t, res.CacheInfo.RouteHit)
}

func TestRunnerExecuteStrategyChangesKey(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()
	path := writeBoard(t)

	_, err := r.Execute(ctx, Options{BoardPath: path, Strategy: "simple"})
	require.NoError(t, err)

	res, err := r.Execute(ctx, Options{BoardPath: path, Strategy: "avoidance"})
	require.NoError(t, err)
	assert.False(t, res.CacheInfo.RouteHit)
	assert.Equal(t, "avoidance", string(res.Routing.Strategy))
}

func TestRunnerExecuteDumpPasses(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		BoardPath:  writeBoard(t),
		Strategy:   "ripup",
		Passes:     Ptr(2),
		DumpPasses: true,
	})
	require.NoError(t, err)
	require.Len(t, res.PassArtifacts, 2)
	for pass, data := range res.PassArtifacts {
		assert.True(t, bytes.HasPrefix(data, []byte("(kicad_pcb")), "pass %d", pass)
	}
	assert.Len(t, res.Routing.Passes, 2)
}

func TestRunnerExecuteCostMap(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()
	opts := Options{BoardPath: writeBoard(t), Strategy: "simple", Formats: []string{FormatCostMap}, CostMapLayer: 1}

	first, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(first.Artifacts[FormatCostMap], []byte("\x89PNG")))

	second, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.RouteHit, "cached route carries its cost map")
	assert.True(t, second.CacheInfo.RenderHit)
}

func TestRunnerExecuteInlineBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bio.WriteJSON(boardtest.Crossing(), &buf))

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Board:       buf.String(),
		BoardFormat: BoardJSON,
		Name:        "inline",
		Strategy:    "simple",
		Formats:     []string{FormatJSON},
	})
	require.NoError(t, err)
	assert.Equal(t, "inline", res.Board.Name)
	assert.Contains(t, string(res.Artifacts[FormatJSON]), `"board": "inline"`)
}

func TestRunnerExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{BoardPath: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))

	_, err = r.Execute(ctx, Options{Board: "{not json", BoardFormat: BoardJSON})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidBoard, errors.GetCode(err))

	_, err = r.Execute(ctx, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestRouteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{BoardPath: "unused.json", Strategy: "ripup"}
	require.NoError(t, opts.ValidateAndSetDefaults())
	_, _, err := Route(ctx, boardtest.Crossing(), opts)
	assert.ErrorIs(t, err, context.Canceled)
}
