package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridroute/pkg/pipeline"
)

// ratsnestCommand creates the ratsnest command. It routes the board (or
// reuses a cached route) and draws each net's connection tree with
// Graphviz; unconnected nets are drawn dashed.
func (c *CLI) ratsnestCommand() *cobra.Command {
	var (
		output   string
		strategy string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "ratsnest [board.kicad_pcb]",
		Short: "Draw the net connection graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := pipeline.FormatRatsnest
			if strings.HasSuffix(output, ".dot") {
				format = pipeline.FormatDOT
			}
			return c.runRatsnest(cmd.Context(), args[0], strategy, format, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.svg or .dot, default <board>.ratsnest.svg)")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", pipeline.DefaultStrategy, "routing strategy used to mark failed nets")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runRatsnest(ctx context.Context, input, strategy, format, output string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{BoardPath: input, Strategy: strategy, Formats: []string{format}, Logger: c.Logger}
	opts.ApplyConfig(cfg)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}

	if output == "" {
		output = pipeline.ArtifactName(strings.TrimSuffix(input, filepath.Ext(input)), res.Routing.Strategy, format, 0)
	}
	if err := writeFile(output, res.Artifacts[format]); err != nil {
		return err
	}
	printSuccess("Ratsnest for %s", StyleHighlight.Render(res.Board.Name))
	printFile(output)
	return nil
}
