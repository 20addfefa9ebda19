package sink

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/gridroute/pkg/router"
)

// Heat map defaults.
const (
	DefaultCostMapWidth = 8 * vg.Inch
	costMapColors       = 64
)

// CostMapOption configures [RenderCostMap].
type CostMapOption func(*costMapRenderer)

type costMapRenderer struct {
	width  vg.Length
	format string
	title  string
	log    bool
}

// WithCostMapWidth sets the image width; the height follows the grid's
// aspect ratio.
func WithCostMapWidth(w vg.Length) CostMapOption {
	return func(r *costMapRenderer) { r.width = w }
}

// WithCostMapFormat selects any format gonum/plot can write ("png", "svg",
// "pdf"). The default is "png".
func WithCostMapFormat(f string) CostMapOption {
	return func(r *costMapRenderer) { r.format = f }
}

// WithCostMapTitle sets the plot title.
func WithCostMapTitle(t string) CostMapOption {
	return func(r *costMapRenderer) { r.title = t }
}

// WithCostMapLog plots log10(1+cost) so trace costs stay visible next to
// pad obstacles.
func WithCostMapLog() CostMapOption { return func(r *costMapRenderer) { r.log = true } }

// costPlane adapts one layer of a CostMap to plotter.GridXYZ. Rows are
// flipped so the image matches the board's y-down orientation.
type costPlane struct {
	cm    *router.CostMap
	layer int
	log   bool
}

func (p costPlane) Dims() (c, r int) { return p.cm.Width, p.cm.Height }
func (p costPlane) X(c int) float64  { return float64(c) }
func (p costPlane) Y(r int) float64  { return float64(r) }

func (p costPlane) Z(c, r int) float64 {
	v := p.cm.At(c, p.cm.Height-1-r, p.layer)
	if p.log {
		return math.Log10(1 + math.Max(v, 0))
	}
	return v
}

// RenderCostMap plots the base costs of one layer as a heat map.
func RenderCostMap(cm *router.CostMap, layer int, opts ...CostMapOption) ([]byte, error) {
	if cm == nil || layer < 0 || layer >= len(cm.Layers) {
		return nil, fmt.Errorf("sink: cost map has no layer %d", layer)
	}
	if cm.Width < 2 || cm.Height < 2 {
		return nil, fmt.Errorf("sink: cost map %dx%d is too small to plot", cm.Width, cm.Height)
	}
	r := costMapRenderer{width: DefaultCostMapWidth, format: "png"}
	for _, opt := range opts {
		opt(&r)
	}

	plane := costPlane{cm: cm, layer: layer, log: r.log}
	h := plotter.NewHeatMap(plane, palette.Heat(costMapColors, 1))
	h.Rasterized = true
	if h.Max <= h.Min {
		h.Max = h.Min + 1
	}

	p := plot.New()
	p.Title.Text = r.title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("base cost, layer %d", layer)
	}
	p.X.Label.Text = "x (cells)"
	p.Y.Label.Text = "y (cells, flipped)"
	p.Add(h)

	height := r.width * vg.Length(float64(cm.Height)/float64(cm.Width))
	wt, err := p.WriterTo(r.width, height+vg.Inch, r.format)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("sink: write %s: %w", r.format, err)
	}
	return buf.Bytes(), nil
}
