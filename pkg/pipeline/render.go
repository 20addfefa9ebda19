package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/router"
	"github.com/matzehuels/gridroute/pkg/sink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, b *board.Board, res *router.Result, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, b, res, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, b *board.Board, res *router.Result, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatKiCad:
		return sink.RenderKiCad(b, res)
	case FormatJSON:
		return sink.RenderJSON(res)
	case FormatSVG:
		return sink.RenderSVG(b, res, sink.WithSVGLabels()), nil
	case FormatCostMap:
		if res.CostMap == nil {
			return nil, fmt.Errorf("result has no cost map")
		}
		return sink.RenderCostMap(res.CostMap, opts.CostMapLayer,
			sink.WithCostMapLog(),
			sink.WithCostMapTitle(fmt.Sprintf("%s: base cost, %s", b.Name, layerName(res, opts.CostMapLayer))))
	case FormatRatsnest:
		return sink.RenderRatsnest(ctx, sink.RatsnestDOT(b, res))
	case FormatDOT:
		return []byte(sink.RatsnestDOT(b, res)), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

func layerName(res *router.Result, l int) string {
	if l >= 0 && l < len(res.Layers) {
		return res.Layers[l]
	}
	return fmt.Sprintf("layer %d", l)
}
