// Package grid implements the routing grid: a dense three-dimensional array of
// cells carrying accumulated obstacle cost, and a multi-source cost-directed
// search over it.
//
// # Cells
//
// Each cell is addressed by a [Location] (x, y, layer). Cells hold two additive
// accumulators, base cost (discourages traces) and via cost (discourages
// vias), a via-forbidden flag and a kind tag. Both accumulators may go
// negative while a net's own pads are temporarily relieved.
//
// The incremental cost of laying a trace or a via at a cell depends on the
// active [Rules]: a square clearance window around the cell is summed. These
// sums are cached per cell and invalidated whenever a mutation touches the
// window, so repeated visits during a search cost O(1).
//
// # Search
//
// [CostGrid.Search] runs Dijkstra from a set of sources to the nearest of a
// set of targets. In-plane moves reach the eight neighbors; via moves reach
// the same (x, y) on every other layer. Ties are broken by discovery order so
// results are reproducible.
//
// Search scratch state (working cost, back-references) lives in a separate
// slice stamped with a per-search epoch; nothing from one search is visible to
// the next.
//
// Complexity:
//
//   - Search: O(C log C) for C reachable cells, plus O(r²) the first time a
//     cell's clearance window (radius r) is summed.
//   - Mutations: O(r²) invalidation per touched rectangle.
//
// Errors:
//
//   - ErrInvalidDimensions: New called with a non-positive dimension.
//   - ErrInvalidLocation: a Location outside the grid was passed to Search.
//   - ErrEmptySet: Search called without sources or targets.
//   - ErrNoPathFound: the frontier was exhausted before reaching a target.
//   - ErrDisconnected: a Path contains a non-adjacent step.
package grid
