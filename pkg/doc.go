// Package pkg provides the core libraries of gridroute, a grid-based PCB
// autorouter.
//
// # Overview
//
// gridroute discretizes a board into a 3D cost grid (x, y, copper layer),
// connects every net's pins with a multi-source Dijkstra search, and then
// repeatedly rips up and reroutes each net so that earlier nets stop
// blocking later ones. The pkg directory is organized into four areas:
//
//  1. [board], [io] - Board model, KiCad and JSON readers
//  2. [grid], [router] - Cost grid, path search and the routing strategies
//  3. [sink] - Output formats (KiCad, JSON, SVG, cost heat map, ratsnest)
//  4. [pipeline], [api] - Orchestration (load → route → render) with caching
//
// # Architecture
//
// The typical data flow through gridroute:
//
//	KiCad board file
//	         ↓
//	    [io] package (parse into a [board.Board])
//	         ↓
//	    [router] package (map to grid cells, project pads, route, rip up)
//	         ↓
//	    [router.Result] (segments and vias in board units)
//	         ↓
//	    [sink] package (KiCad/JSON/SVG/PNG/DOT output)
//
// # Quick Start
//
// Route a board and write the result back as KiCad:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gridroute/pkg/io"
//	    "github.com/matzehuels/gridroute/pkg/router"
//	    "github.com/matzehuels/gridroute/pkg/sink"
//	)
//
//	b, _, _ := io.ImportBoard("board.kicad_pcb")
//	r, _ := router.New(b, router.DefaultOptions())
//	sol, _ := r.Route(context.Background())
//	res := r.Export(sol)
//	out, _ := sink.RenderKiCad(b, res)
//
// # Main Packages
//
// [grid] - The routing grid. Every cell carries a base cost, a via cost and
// a via-forbidden flag; [grid.CostGrid.Search] finds the cheapest path from
// any source cell to any target cell with 8-connected in-plane moves and
// layer changes.
//
// [router] - Board-to-grid coordinate mapping, pad obstacle projection,
// multi-pin net routing and rip-up and reroute. Three strategies: simple,
// avoidance and ripup.
//
// [sink] - Renderers for routed results. KiCad output appends (segment ...)
// and (via ...) records to the original board text.
//
// [pipeline] - The load → route → render sequence used by CLI and API,
// caching routed results and rendered artifacts by content hash.
//
// [cache] - File, Redis and null caches plus the key derivation.
//
// [config] - TOML configuration for grid and cost parameters.
//
// [api] - HTTP routing service built on chi.
//
// [observability] - Hook interfaces for routing and cache events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/router/...      # Specific package
//	go test -run Example ./pkg/...
//
// [board]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/board
// [board.Board]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/board#Board
// [io]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/io
// [grid]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/grid
// [grid.CostGrid.Search]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/grid#CostGrid.Search
// [router]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/router
// [router.Result]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/router#Result
// [sink]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/config
// [api]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/api
// [observability]: https://pkg.go.dev/github.com/matzehuels/gridroute/pkg/observability
package pkg
