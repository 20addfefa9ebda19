// Package sink renders a routed [router.Result] into output formats.
//
// Every renderer is a pure function of its inputs and returns the encoded
// bytes, so the pipeline can cache artifacts by content:
//
//   - [RenderKiCad]: the input board with routed segments and vias appended
//   - [RenderJSON]: the result document, also served by the HTTP API
//   - [RenderSVG]: a top-down preview of pads, tracks and vias
//   - [RenderCostMap]: a PNG heat map of one layer's base costs
//   - [RatsnestDOT] and [RenderRatsnest]: the net connectivity graph
//
// Renderers that need options take functional options in the usual way:
//
//	data, err := sink.RenderKiCad(b, res, sink.WithKiCadIDs(func() string { return "0" }))
package sink
