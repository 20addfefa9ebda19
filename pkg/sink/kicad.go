package sink

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/buildinfo"
	"github.com/matzehuels/gridroute/pkg/router"
)

// ErrUnbalancedSource is returned when the board source does not end with
// the closing parenthesis of its top-level list.
var ErrUnbalancedSource = errors.New("sink: board source does not end with ')'")

// KiCadOption configures [RenderKiCad].
type KiCadOption func(*kicadRenderer)

type kicadRenderer struct {
	newID func() string
}

// WithKiCadIDs replaces the tstamp generator. Tests use it for stable output.
func WithKiCadIDs(fn func() string) KiCadOption {
	return func(r *kicadRenderer) { r.newID = fn }
}

// KiCadFileName returns the output name for a routed board,
// "<name>.routed.<strategy>.kicad_pcb".
func KiCadFileName(name string, s router.Strategy) string {
	return fmt.Sprintf("%s.routed.%s.kicad_pcb", name, s)
}

// RenderKiCad writes res as KiCad (via ...) and (segment ...) records. When
// b carries its source text the records are spliced in before the final
// closing parenthesis, so everything else in the file is preserved. Boards
// read from JSON get a minimal standalone file with their layers and nets.
func RenderKiCad(b *board.Board, res *router.Result, opts ...KiCadOption) ([]byte, error) {
	r := kicadRenderer{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	if len(b.Source) > 0 {
		src := bytes.TrimRight(b.Source, " \t\r\n")
		if len(src) == 0 || src[len(src)-1] != ')' {
			return nil, ErrUnbalancedSource
		}
		buf.Write(src[:len(src)-1])
		buf.WriteString("\n")
	} else {
		writeKiCadHeader(&buf, b)
	}

	for _, nr := range res.Nets {
		for _, v := range nr.Vias {
			fmt.Fprintf(&buf, "  (via (at %s %s) (size %s) (drill %s) (layers %s %s) (net %d) (tstamp %s))\n",
				num(v.At.X), num(v.At.Y), num(v.Diameter), num(v.Drill), v.From, v.To, nr.ID, r.newID())
		}
		for _, s := range nr.Segments {
			fmt.Fprintf(&buf, "  (segment (start %s %s) (end %s %s) (width %s) (layer %s) (net %d) (tstamp %s))\n",
				num(s.Start.X), num(s.Start.Y), num(s.End.X), num(s.End.Y), num(s.Width), s.Layer, nr.ID, r.newID())
		}
	}
	buf.WriteString(")\n")
	return buf.Bytes(), nil
}

func writeKiCadHeader(buf *bytes.Buffer, b *board.Board) {
	fmt.Fprintf(buf, "(kicad_pcb (version 20171130) (host %s)\n", buildinfo.Host())
	buf.WriteString("  (layers\n")
	for _, l := range b.Layers {
		fmt.Fprintf(buf, "    (%d %s signal)\n", l.ID, l.Name)
	}
	buf.WriteString("  )\n")
	buf.WriteString("  (net 0 \"\")\n")
	for _, n := range b.Nets {
		fmt.Fprintf(buf, "  (net %d %q)\n", n.ID, n.Name)
	}
}

// num formats a board coordinate with at most six decimals.
func num(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
