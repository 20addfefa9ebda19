package router

import (
	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

// GridNetclass is a netclass with every length converted to grid cells.
type GridNetclass struct {
	ID               int `json:"id"`
	Clearance        int `json:"clearance"`
	TraceWidth       int `json:"trace_width"`
	ViaDiameter      int `json:"via_diameter"`
	ViaDrill         int `json:"via_drill"`
	MicroViaDiameter int `json:"micro_via_diameter"`
	MicroViaDrill    int `json:"micro_via_drill"`
}

// NewGridNetclass converts nc with m, rounding every length up.
func NewGridNetclass(nc board.Netclass, m *Mapper) GridNetclass {
	return GridNetclass{
		ID:               nc.ID,
		Clearance:        m.LengthToGrid(nc.Clearance),
		TraceWidth:       m.LengthToGrid(nc.TraceWidth),
		ViaDiameter:      m.LengthToGrid(nc.ViaDiameter),
		ViaDrill:         m.LengthToGrid(nc.ViaDrill),
		MicroViaDiameter: m.LengthToGrid(nc.MicroViaDiameter),
		MicroViaDrill:    m.LengthToGrid(nc.MicroViaDrill),
	}
}

// Rules returns the search rule set for nets of this class.
func (nc GridNetclass) Rules() grid.Rules {
	return grid.Rules{
		Clearance:   nc.Clearance,
		TraceWidth:  nc.TraceWidth,
		ViaDiameter: nc.ViaDiameter,
	}
}
