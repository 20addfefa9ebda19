package sink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/router"
)

// RatsnestDOT returns the board's connectivity as Graphviz DOT. Pads are
// nodes clustered by instance. Each net contributes the edges of a minimum
// spanning tree over its pad positions, the same airwires a layout editor
// draws. When res is non-nil, nets with failed pins are drawn red and dashed.
func RatsnestDOT(b *board.Board, res *router.Result) string {
	failed := map[int]bool{}
	if res != nil {
		for _, nr := range res.Nets {
			if nr.FailedPins > 0 {
				failed[nr.ID] = true
			}
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "graph %q {\n", b.Name)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10];\n\n")

	for i := range b.Instances {
		inst := &b.Instances[i]
		fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", inst.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", inst.Name)
		for j := range inst.Pads {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", padNode(inst, j), inst.Pads[j].Name)
		}
		buf.WriteString("  }\n")
	}
	buf.WriteString("\n")

	for i := range b.Nets {
		net := &b.Nets[i]
		attrs := []string{fmt.Sprintf("label=%q", net.Name)}
		if failed[net.ID] {
			attrs = append(attrs, "color=red", "style=dashed")
		}
		for _, e := range netMST(b, net) {
			fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e[0], e[1], strings.Join(attrs, ", "))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func padNode(inst *board.Instance, pad int) string {
	return fmt.Sprintf("%s.%s", inst.Name, inst.Pads[pad].Name)
}

// netMST runs Prim's algorithm over the net's pins. Pins that do not
// resolve are left out.
func netMST(b *board.Board, net *board.Net) [][2]string {
	type pin struct {
		name string
		pos  board.Point
	}
	var pins []pin
	for _, ref := range net.Pins {
		inst, _, err := b.Pad(ref)
		if err != nil {
			continue
		}
		pos, _ := b.PinPosition(ref)
		pins = append(pins, pin{name: padNode(inst, ref.Pad), pos: pos})
	}
	if len(pins) < 2 {
		return nil
	}

	in := make([]bool, len(pins))
	dist := make([]float64, len(pins))
	from := make([]int, len(pins))
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[0] = 0
	var edges [][2]string
	for range pins {
		u := -1
		for i := range pins {
			if !in[i] && (u < 0 || dist[i] < dist[u]) {
				u = i
			}
		}
		in[u] = true
		if u != 0 {
			edges = append(edges, [2]string{pins[from[u]].name, pins[u].name})
		}
		for v := range pins {
			if in[v] {
				continue
			}
			if d := math.Hypot(pins[u].pos.X-pins[v].pos.X, pins[u].pos.Y-pins[v].pos.Y); d < dist[v] {
				dist[v], from[v] = d, u
			}
		}
	}
	return edges
}

// RenderRatsnest lays out a DOT graph with Graphviz and returns SVG.
func RenderRatsnest(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
