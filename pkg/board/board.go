// Package board models a placed printed circuit board: copper layers, placed
// component instances with their pads, nets and netclass design rules.
//
// All lengths are in board units (millimetres for KiCad input). The model is
// read-only while routing; the router queries it for the routing outline,
// pad geometry, net pin lists and netclass rules.
package board

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in board units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Rotate turns p around the origin by deg degrees, counter-clockwise as seen
// on a board drawn with the y axis pointing down (the KiCad convention).
func (p Point) Rotate(deg float64) Point {
	if deg == 0 {
		return p
	}
	s, c := math.Sincos(deg * math.Pi / 180)
	return Point{X: p.X*c + p.Y*s, Y: -p.X*s + p.Y*c}
}

// PadType distinguishes surface-mount from through-hole pads.
type PadType int

const (
	PadSMD PadType = iota
	PadThroughHole
)

// String returns the KiCad keyword for the pad type.
func (t PadType) String() string {
	if t == PadThroughHole {
		return "thru_hole"
	}
	return "smd"
}

// MarshalText implements encoding.TextMarshaler.
func (t PadType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PadType) UnmarshalText(b []byte) error {
	pt, err := ParsePadType(string(b))
	if err != nil {
		return err
	}
	*t = pt
	return nil
}

// ParsePadType maps a KiCad pad type keyword to a PadType. NPTH pads are
// drilled through every layer and count as through-hole.
func ParsePadType(s string) (PadType, error) {
	switch strings.ToLower(s) {
	case "smd", "connect":
		return PadSMD, nil
	case "thru_hole", "np_thru_hole", "tht":
		return PadThroughHole, nil
	}
	return PadSMD, fmt.Errorf("unknown pad type %q", s)
}

// Pad is one copper pad of a placed instance.
type Pad struct {
	Name     string  `json:"name"`
	Type     PadType `json:"type"`
	Offset   Point   `json:"offset"`             // relative to the instance origin, before instance rotation
	Width    float64 `json:"width"`              // size along the pad's own x axis
	Height   float64 `json:"height"`             // size along the pad's own y axis
	Rotation float64 `json:"rotation,omitempty"` // relative to the instance, degrees
}

// Instance is a placed component.
type Instance struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Position Point   `json:"position"`
	Rotation float64 `json:"rotation,omitempty"`
	Layer    int     `json:"layer"` // copper layer id the component is placed on
	Pads     []Pad   `json:"pads"`
}

// PinRef identifies a pad of an instance.
type PinRef struct {
	Instance int `json:"instance"`
	Pad      int `json:"pad"`
}

// Net is a set of pins that must be connected.
type Net struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Netclass int      `json:"netclass"`
	Pins     []PinRef `json:"pins"`
}

// Netclass is a named design-rule set in board units.
type Netclass struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Clearance        float64 `json:"clearance"`
	TraceWidth       float64 `json:"trace_width"`
	ViaDiameter      float64 `json:"via_diameter"`
	ViaDrill         float64 `json:"via_drill"`
	MicroViaDiameter float64 `json:"micro_via_diameter,omitempty"`
	MicroViaDrill    float64 `json:"micro_via_drill,omitempty"`
}

// Layer is a copper layer.
type Layer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Board is the complete routing input.
type Board struct {
	Name       string     `json:"name"`
	Layers     []Layer    `json:"layers"` // copper layers in stack order, top first
	Instances  []Instance `json:"instances"`
	Nets       []Net      `json:"nets"`
	Netclasses []Netclass `json:"netclasses"`

	// Source holds the original file text when the board was read from a
	// KiCad file, so routed tracks can be appended to it.
	Source []byte `json:"-"`
}

// =============================================================================
// Lookups
// =============================================================================

// IsNetID reports whether a net with id exists.
func (b *Board) IsNetID(id int) bool {
	_, ok := b.Net(id)
	return ok
}

// Net returns the net with id.
func (b *Board) Net(id int) (*Net, bool) {
	for i := range b.Nets {
		if b.Nets[i].ID == id {
			return &b.Nets[i], true
		}
	}
	return nil, false
}

// IsNetclassID reports whether a netclass with id exists.
func (b *Board) IsNetclassID(id int) bool {
	_, ok := b.Netclass(id)
	return ok
}

// Netclass returns the netclass with id.
func (b *Board) Netclass(id int) (Netclass, bool) {
	for _, nc := range b.Netclasses {
		if nc.ID == id {
			return nc, true
		}
	}
	return Netclass{}, false
}

// Instance returns the instance with id.
func (b *Board) Instance(id int) (*Instance, bool) {
	for i := range b.Instances {
		if b.Instances[i].ID == id {
			return &b.Instances[i], true
		}
	}
	return nil, false
}

// Pad resolves a pin reference to its instance and pad.
func (b *Board) Pad(pin PinRef) (*Instance, *Pad, error) {
	inst, ok := b.Instance(pin.Instance)
	if !ok {
		return nil, nil, fmt.Errorf("unknown instance %d", pin.Instance)
	}
	if pin.Pad < 0 || pin.Pad >= len(inst.Pads) {
		return nil, nil, fmt.Errorf("instance %s has no pad %d", inst.Name, pin.Pad)
	}
	return inst, &inst.Pads[pin.Pad], nil
}

// PinPosition returns the absolute board position of a pin.
func (b *Board) PinPosition(pin PinRef) (Point, error) {
	inst, pad, err := b.Pad(pin)
	if err != nil {
		return Point{}, err
	}
	return PadPosition(inst, pad), nil
}

// PadPosition returns the absolute position of pad on inst.
func PadPosition(inst *Instance, pad *Pad) Point {
	return inst.Position.Add(pad.Offset.Rotate(inst.Rotation))
}

// PadRotatedSize returns the width and height of the axis-aligned box
// enclosing pad after instance and pad rotation.
func PadRotatedSize(inst *Instance, pad *Pad) (w, h float64) {
	deg := math.Mod(inst.Rotation+pad.Rotation, 360)
	s, c := math.Sincos(deg * math.Pi / 180)
	s, c = math.Abs(s), math.Abs(c)
	w = pad.Width*c + pad.Height*s
	h = pad.Width*s + pad.Height*c
	return w, h
}

// NumCopperLayers returns the number of copper layers.
func (b *Board) NumCopperLayers() int { return len(b.Layers) }

// LayerIndex returns the stack position of the copper layer with id.
func (b *Board) LayerIndex(id int) (int, bool) {
	for i, l := range b.Layers {
		if l.ID == id {
			return i, true
		}
	}
	return 0, false
}

// LayerByName returns the copper layer with name.
func (b *Board) LayerByName(name string) (Layer, bool) {
	for _, l := range b.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Boundary is an axis-aligned box in board units.
type Boundary struct {
	MinX, MaxX, MinY, MaxY float64
}

// Width returns the horizontal extent.
func (bb Boundary) Width() float64 { return bb.MaxX - bb.MinX }

// Height returns the vertical extent.
func (bb Boundary) Height() float64 { return bb.MaxY - bb.MinY }

// BoundaryByPins returns the box enclosing every pad position of every
// instance. It reports false for a board without pads.
func (b *Board) BoundaryByPins() (Boundary, bool) {
	bb := Boundary{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	found := false
	for i := range b.Instances {
		inst := &b.Instances[i]
		for j := range inst.Pads {
			p := PadPosition(inst, &inst.Pads[j])
			bb.MinX = math.Min(bb.MinX, p.X)
			bb.MaxX = math.Max(bb.MaxX, p.X)
			bb.MinY = math.Min(bb.MinY, p.Y)
			bb.MaxY = math.Max(bb.MaxY, p.Y)
			found = true
		}
	}
	if !found {
		return Boundary{}, false
	}
	return bb, true
}

// PinCount returns the total number of net pins.
func (b *Board) PinCount() int {
	n := 0
	for _, net := range b.Nets {
		n += len(net.Pins)
	}
	return n
}

// Validate checks structural consistency: at least one copper layer, unique
// ids, and instances placed on known layers. Dangling net references are not
// structural errors; the router skips such nets.
func (b *Board) Validate() error {
	if len(b.Layers) == 0 {
		return fmt.Errorf("board has no copper layers")
	}
	seen := map[string]bool{}
	check := func(kind string, id int) error {
		key := fmt.Sprintf("%s:%d", kind, id)
		if seen[key] {
			return fmt.Errorf("duplicate %s id %d", kind, id)
		}
		seen[key] = true
		return nil
	}
	for _, l := range b.Layers {
		if err := check("layer", l.ID); err != nil {
			return err
		}
	}
	for _, inst := range b.Instances {
		if err := check("instance", inst.ID); err != nil {
			return err
		}
		if _, ok := b.LayerIndex(inst.Layer); !ok {
			return fmt.Errorf("instance %s placed on unknown layer %d", inst.Name, inst.Layer)
		}
	}
	for _, n := range b.Nets {
		if err := check("net", n.ID); err != nil {
			return err
		}
	}
	for _, nc := range b.Netclasses {
		if err := check("netclass", nc.ID); err != nil {
			return err
		}
	}
	return nil
}
