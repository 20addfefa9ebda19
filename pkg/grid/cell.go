package grid

import "math"

// Kind tags what currently occupies a cell.
type Kind uint8

const (
	KindVacant Kind = iota
	KindPad
	KindTrace
	KindVia
	KindViaForbidden
)

var kindNames = [...]string{"vacant", "pad", "trace", "via", "via_forbidden"}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// invalidCost marks a cached incremental cost that must be recomputed.
const invalidCost = -1.0

// cell is the occupancy layer: everything that survives between searches.
type cell struct {
	base         float64
	via          float64
	traceCache   float64
	viaCache     float64
	kind         Kind
	viaForbidden bool

	// routes counts committed paths through the cell, vias those that
	// change layer here.
	routes, vias int32
}

// retag derives the occupancy tag from the route counts. Pads keep their tag.
func (c *cell) retag() {
	if c.kind == KindPad {
		return
	}
	switch {
	case c.vias > 0:
		c.kind = KindVia
	case c.routes > 0:
		c.kind = KindTrace
	default:
		c.kind = KindVacant
	}
}

// scratch is the per-search layer. An entry is meaningful only when its
// epoch equals the grid's current search epoch.
type scratch struct {
	epoch  uint32
	cost   float64
	from   int32
	closed bool
}

func (s *scratch) reset(epoch uint32) {
	s.epoch = epoch
	s.cost = math.Inf(1)
	s.from = -1
	s.closed = false
}
