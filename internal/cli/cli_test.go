package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/board/boardtest"
	"github.com/matzehuels/gridroute/pkg/config"
	bio "github.com/matzehuels/gridroute/pkg/io"
	"github.com/matzehuels/gridroute/pkg/router"
)

// run executes the root command with args and returns what it printed
// through cmd.OutOrStdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeBoard(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crossing.json")
	require.NoError(t, bio.ExportJSON(boardtest.Crossing(), path))
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"route", "info", "ratsnest", "cache", "config", "serve", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRouteCommandWritesOutputs(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	boardPath := writeBoard(t)
	outDir := t.TempDir()

	_, err := run(t, "route", boardPath, "-s", "avoidance", "-f", "kicad,json,svg", "-o", outDir)
	require.NoError(t, err)

	for _, name := range []string{
		"crossing.routed.avoidance.kicad_pcb",
		"crossing.routed.avoidance.json",
		"crossing.routed.avoidance.svg",
	} {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestRouteCommandDumpPasses(t *testing.T) {
	boardPath := writeBoard(t)
	outDir := t.TempDir()

	_, err := run(t, "route", boardPath, "--no-cache", "--passes", "2", "--dump-passes", "-o", outDir)
	require.NoError(t, err)

	for _, name := range []string{
		"crossing.routed.ripup.kicad_pcb",
		"crossing.routed.ripup.pass0.kicad_pcb",
		"crossing.routed.ripup.pass1.kicad_pcb",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestRouteCommandRejectsBadStrategy(t *testing.T) {
	_, err := run(t, "route", writeBoard(t), "--no-cache", "-s", "maze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy")
}

func TestRouteFlagsOverrideConfig(t *testing.T) {
	viaCost := 300.0
	passes := 9
	cfg := &config.Config{}
	cfg.Cost.ViaCost = &viaCost
	cfg.RipUp.Passes = &passes

	cmd := New(io.Discard, LogInfo).routeCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--passes", "3", "-f", "kicad,svg"}))

	var f routeFlags
	f.knobs.passes, _ = cmd.Flags().GetInt("passes")
	f.opts.Strategy, _ = cmd.Flags().GetString("strategy")
	f.formats, _ = cmd.Flags().GetString("format")
	opts := f.resolve(cmd.Flags(), cfg)

	assert.Equal(t, 3, *opts.Passes, "explicit flag wins")
	assert.Equal(t, 300.0, *opts.ViaCost, "unset flag falls back to config")
	assert.Nil(t, opts.TraceCost, "left for the defaults")
	assert.Equal(t, []string{"kicad", "svg"}, opts.Formats)
	assert.Equal(t, "ripup", opts.Strategy)
}

func TestRouteFlagsKeepExplicitZeros(t *testing.T) {
	passes := 9
	cfg := &config.Config{}
	cfg.RipUp.Passes = &passes

	cmd := New(io.Discard, LogInfo).routeCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--passes", "0", "--trace-cost", "0"}))

	var f routeFlags
	f.knobs.passes, _ = cmd.Flags().GetInt("passes")
	f.knobs.traceCost, _ = cmd.Flags().GetFloat64("trace-cost")
	f.opts.Strategy, _ = cmd.Flags().GetString("strategy")
	opts := f.resolve(cmd.Flags(), cfg)
	opts.BoardPath = "board.kicad_pcb"
	require.NoError(t, opts.ValidateAndSetDefaults())

	ro := opts.RouterOptions()
	assert.Zero(t, ro.Passes, "zero flag beats the config")
	assert.Zero(t, ro.TraceCost)
	assert.Equal(t, config.DefaultViaCost, ro.ViaCost)
}

func TestRouteCostFlagHelp(t *testing.T) {
	flags := New(io.Discard, LogInfo).routeCommand().Flags()
	assert.Contains(t, flags.Lookup("via-step-cost").Usage, "layer change")
	assert.Contains(t, flags.Lookup("via-cost").Usage, "around placed vias")
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	written, err := writeArtifacts(artifactWriteParams{
		dir:       dir,
		name:      "demo",
		strategy:  router.StrategySimple,
		layer:     1,
		artifacts: map[string][]byte{"svg": []byte("<svg/>"), "costmap": []byte("png")},
		passes:    map[int][]byte{1: []byte("b"), 0: []byte("a")},
	})
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "demo.cost.layer1.png"),
		filepath.Join(dir, "demo.routed.simple.svg"),
		filepath.Join(dir, "demo.routed.simple.pass0.kicad_pcb"),
		filepath.Join(dir, "demo.routed.simple.pass1.kicad_pcb"),
	}
	assert.Equal(t, want, written)

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridroute.toml")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPasses, cfg.GetPasses())

	_, err = run(t, "config", "init", path)
	assert.Error(t, err, "refuses to overwrite without --force")

	out, err := run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[ripup]")
	assert.Contains(t, out, "passes = 5")
}

func TestCachePath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	out, err := run(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, appName), strings.TrimSpace(out))
}

func TestCacheClear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	boardPath := writeBoard(t)

	_, err := run(t, "route", boardPath, "-s", "simple", "-o", t.TempDir())
	require.NoError(t, err)

	dir, err := cacheDir()
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	_, err = run(t, "cache", "clear")
	require.NoError(t, err)
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInfoCommand(t *testing.T) {
	_, err := run(t, "info", writeBoard(t))
	assert.NoError(t, err)

	_, err = run(t, "info", filepath.Join(t.TempDir(), "missing.kicad_pcb"))
	assert.Error(t, err)
}
