package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/pipeline"
	"github.com/matzehuels/gridroute/pkg/router"
)

// infoCommand creates the info command, which summarizes a board and the
// grid it would be routed on without routing it.
func (c *CLI) infoCommand() *cobra.Command {
	var inputScale float64

	cmd := &cobra.Command{
		Use:   "info [board.kicad_pcb]",
		Short: "Show board statistics and the routing grid size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := pipeline.Options{BoardPath: args[0], Logger: c.Logger}
			if cmd.Flags().Changed("input-scale") {
				opts.InputScale = pipeline.Ptr(inputScale)
			}
			opts.ApplyConfig(cfg)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			b, _, err := pipeline.Load(opts)
			if err != nil {
				return err
			}
			r, err := router.New(b, opts.RouterOptions())
			if err != nil {
				return err
			}
			prog.done("Built routing grid")
			printBoardInfo(b, r)
			return nil
		},
	}

	cmd.Flags().Float64Var(&inputScale, "input-scale", 0, "grid cells per board unit (default from config)")
	return cmd
}

func printBoardInfo(b *board.Board, r *router.Router) {
	pads := 0
	for _, inst := range b.Instances {
		pads += len(inst.Pads)
	}
	routable := 0
	for _, n := range b.Nets {
		if len(n.Pins) >= 2 {
			routable++
		}
	}

	fmt.Println(StyleTitle.Render(b.Name))
	printKeyValue("Layers", layerList(b))
	printKeyValue("Instances", fmt.Sprint(len(b.Instances)))
	printKeyValue("Pads", fmt.Sprint(pads))
	printKeyValue("Nets", fmt.Sprintf("%d (%d routable)", len(b.Nets), routable))
	printKeyValue("Pins", fmt.Sprint(b.PinCount()))
	printKeyValue("Netclasses", fmt.Sprint(len(b.Netclasses)))
	if bb, ok := b.BoundaryByPins(); ok {
		printKeyValue("Pin extents", fmt.Sprintf("%.3f x %.3f", bb.Width(), bb.Height()))
	}
	g := r.Grid()
	printKeyValue("Grid", fmt.Sprintf("%d x %d x %d cells", g.Width(), g.Height(), g.Layers()))
	for _, nc := range b.Netclasses {
		printDetail("netclass %s: trace %.3f, clearance %.3f, via %.3f/%.3f",
			nc.Name, nc.TraceWidth, nc.Clearance, nc.ViaDiameter, nc.ViaDrill)
	}
}

func layerList(b *board.Board) string {
	s := ""
	for i, l := range b.Layers {
		if i > 0 {
			s += ", "
		}
		s += l.Name
	}
	return s
}
