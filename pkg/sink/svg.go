package sink

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/router"
)

// DefaultSVGScale is the preview resolution in pixels per board unit.
const DefaultSVGScale = 20.0

const svgMargin = 1.0

var layerColors = []string{"#c83434", "#3b6ec8", "#c8a03b", "#3bc87a", "#a03bc8", "#3bc8c8"}

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	scale  float64
	labels bool
}

// WithSVGScale sets pixels per board unit.
func WithSVGScale(s float64) SVGOption {
	return func(r *svgRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithSVGLabels adds net names as tooltips on tracks.
func WithSVGLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

type bounds struct{ minX, minY, maxX, maxY float64 }

func (bb *bounds) add(x, y float64) {
	bb.minX, bb.minY = math.Min(bb.minX, x), math.Min(bb.minY, y)
	bb.maxX, bb.maxY = math.Max(bb.maxX, x), math.Max(bb.maxY, y)
}

// RenderSVG draws a top view of b's pads and res's copper. Tracks are
// coloured by layer; the first layer is drawn last so it sits on top.
func RenderSVG(b *board.Board, res *router.Result, opts ...SVGOption) []byte {
	r := svgRenderer{scale: DefaultSVGScale}
	for _, opt := range opts {
		opt(&r)
	}

	bb := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for i := range b.Instances {
		inst := &b.Instances[i]
		for j := range inst.Pads {
			p := board.PadPosition(inst, &inst.Pads[j])
			w, h := board.PadRotatedSize(inst, &inst.Pads[j])
			bb.add(p.X-w/2, p.Y-h/2)
			bb.add(p.X+w/2, p.Y+h/2)
		}
	}
	for _, nr := range res.Nets {
		for _, s := range nr.Segments {
			bb.add(s.Start.X, s.Start.Y)
			bb.add(s.End.X, s.End.Y)
		}
		for _, v := range nr.Vias {
			bb.add(v.At.X-v.Diameter/2, v.At.Y-v.Diameter/2)
			bb.add(v.At.X+v.Diameter/2, v.At.Y+v.Diameter/2)
		}
	}
	if math.IsInf(bb.minX, 1) {
		bb = bounds{}
	}
	bb.minX, bb.minY = bb.minX-svgMargin, bb.minY-svgMargin
	bb.maxX, bb.maxY = bb.maxX+svgMargin, bb.maxY+svgMargin
	w, h := bb.maxX-bb.minX, bb.maxY-bb.minY

	layerIndex := make(map[string]int, len(res.Layers))
	for i, name := range res.Layers {
		layerIndex[name] = i
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(bb.minX), num(bb.minY), num(w), num(h), w*r.scale, h*r.scale)
	fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="#10201a"/>`+"\n",
		num(bb.minX), num(bb.minY), num(w), num(h))

	buf.WriteString(`  <g id="tracks" fill="none" stroke-linecap="round" stroke-opacity="0.85">` + "\n")
	for l := len(res.Layers) - 1; l >= 0; l-- {
		color := layerColors[l%len(layerColors)]
		for _, nr := range res.Nets {
			for _, s := range nr.Segments {
				if layerIndex[s.Layer] != l {
					continue
				}
				fmt.Fprintf(&buf, `    <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s">`,
					num(s.Start.X), num(s.Start.Y), num(s.End.X), num(s.End.Y), color, num(s.Width))
				if r.labels {
					fmt.Fprintf(&buf, `<title>%s</title>`, html.EscapeString(nr.Name))
				}
				buf.WriteString("</line>\n")
			}
		}
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g id="pads" fill="#d4af37" fill-opacity="0.9">` + "\n")
	for i := range b.Instances {
		inst := &b.Instances[i]
		for j := range inst.Pads {
			pad := &inst.Pads[j]
			p := board.PadPosition(inst, pad)
			rot := inst.Rotation + pad.Rotation
			fmt.Fprintf(&buf, `    <rect x="%s" y="%s" width="%s" height="%s"`,
				num(p.X-pad.Width/2), num(p.Y-pad.Height/2), num(pad.Width), num(pad.Height))
			if math.Mod(rot, 360) != 0 {
				fmt.Fprintf(&buf, ` transform="rotate(%s %s %s)"`, num(-rot), num(p.X), num(p.Y))
			}
			fmt.Fprintf(&buf, `><title>%s.%s</title></rect>`+"\n", html.EscapeString(inst.Name), html.EscapeString(pad.Name))
		}
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g id="vias" fill="#b0b0b0" stroke="#404040">` + "\n")
	for _, nr := range res.Nets {
		for _, v := range nr.Vias {
			fmt.Fprintf(&buf, `    <circle cx="%s" cy="%s" r="%s" stroke-width="%s"/>`+"\n",
				num(v.At.X), num(v.At.Y), num(v.Diameter/2), num((v.Diameter-v.Drill)/2))
		}
	}
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
