package router

import (
	"fmt"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

// MultipinRoute is the routing state of one net.
//
// Pins holds, per pin, every grid location the pin can be entered from
// (one per layer the pad occupies). Paths are the committed connections in
// the order they were found; each starts on the tree grown so far and ends
// on a pin terminal.
type MultipinRoute struct {
	NetID    int               `json:"net_id"`
	Netclass int               `json:"netclass"`
	Rules    grid.Rules        `json:"rules"`
	PinRefs  []board.PinRef    `json:"pin_refs,omitempty"`
	Pins     [][]grid.Location `json:"pins"`

	Paths      []grid.Path `json:"paths"`
	Cost       float64     `json:"cost"`
	FailedPins int         `json:"failed_pins"`

	// footprint radii used when Paths were committed, so rip-up removes
	// exactly what was added even if the rules change in between.
	traceRadius, viaRadius int
}

// NewMultipinRoute returns an unrouted route.
func NewMultipinRoute(netID, netclass int, rules grid.Rules) *MultipinRoute {
	return &MultipinRoute{NetID: netID, Netclass: netclass, Rules: rules}
}

// AddPin appends a pin with its candidate terminals.
func (r *MultipinRoute) AddPin(ref board.PinRef, terminals []grid.Location) {
	r.PinRefs = append(r.PinRefs, ref)
	r.Pins = append(r.Pins, terminals)
}

// Routed reports whether the route has committed paths.
func (r *MultipinRoute) Routed() bool { return len(r.Paths) > 0 }

// Complete reports whether every pin was connected.
func (r *MultipinRoute) Complete() bool { return len(r.Pins) >= 2 && r.FailedPins == 0 }

// Wirelength sums the in-plane grid length of all committed paths.
func (r *MultipinRoute) Wirelength() float64 {
	total := 0.0
	for _, p := range r.Paths {
		total += p.Wirelength()
	}
	return total
}

// ViaCount sums layer changes over all committed paths.
func (r *MultipinRoute) ViaCount() int {
	n := 0
	for _, p := range r.Paths {
		n += p.ViaCount()
	}
	return n
}

// Clone returns a deep copy.
func (r *MultipinRoute) Clone() *MultipinRoute {
	c := *r
	c.PinRefs = append([]board.PinRef(nil), r.PinRefs...)
	c.Pins = make([][]grid.Location, len(r.Pins))
	for i, p := range r.Pins {
		c.Pins[i] = append([]grid.Location(nil), p...)
	}
	c.Paths = make([]grid.Path, len(r.Paths))
	for i, p := range r.Paths {
		c.Paths[i] = p.Clone()
	}
	return &c
}

func cloneRoutes(routes []*MultipinRoute) []*MultipinRoute {
	out := make([]*MultipinRoute, len(routes))
	for i, r := range routes {
		out[i] = r.Clone()
	}
	return out
}

func totalCost(routes []*MultipinRoute) float64 {
	total := 0.0
	for _, r := range routes {
		total += r.Cost
	}
	return total
}

// String summarizes the route for log output.
func (r *MultipinRoute) String() string {
	return fmt.Sprintf("net %d: %d pins, %d paths, cost %.2f", r.NetID, len(r.Pins), len(r.Paths), r.Cost)
}
