package kicad

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gridroute/pkg/board"
)

const testBoard = `(kicad_pcb (version 20171130) (host pcbnew 5.1.9)
  (general (thickness 1.6))
  (layers
    (0 F.Cu signal)
    (31 B.Cu signal)
    (36 B.SilkS user)
    (44 Edge.Cuts user)
  )
  (net 0 "")
  (net 1 GND)
  (net 2 "Net-(R1-Pad2)")
  (net_class Default "This is the default net class."
    (clearance 0.2)
    (trace_width 0.25)
    (via_dia 0.8)
    (via_drill 0.4)
    (uvia_dia 0.3)
    (uvia_drill 0.1)
    (add_net "Net-(R1-Pad2)")
  )
  (net_class Power ""
    (clearance 0.3)
    (trace_width 0.5)
    (add_net GND)
  )
  (module Resistor_SMD:R_0805 (layer F.Cu) (tedit 5F68FEEE) (tstamp 5E1A2B3C)
    (at 100 50 90)
    (fp_text reference R1 (at 0 -1.65 90) (layer F.SilkS))
    (pad 1 smd roundrect (at -0.9125 0 90) (size 1.025 1.4) (layers F.Cu F.Paste F.Mask)
      (net 1 GND))
    (pad 2 smd roundrect (at 0.9125 0 90) (size 1.025 1.4) (layers F.Cu F.Paste F.Mask)
      (net 2 "Net-(R1-Pad2)"))
  )
  (footprint "Connector:Pin_1x02" (layer "B.Cu")
    (at 110 50)
    (property "Reference" "J1")
    (pad "1" thru_hole rect (at 0 0) (size 1.7 1.7) (drill 1) (layers *.Cu *.Mask) (net 1 "GND"))
    (pad "2" thru_hole oval (at 0 2.54) (size 1.7 1.7) (drill 1) (layers *.Cu *.Mask) (net 2 "Net-(R1-Pad2)"))
    (pad "" np_thru_hole circle (at 0 5) (size 1 1) (drill 1) (layers *.Cu))
  )
)
`

func TestParseSExprString(t *testing.T) {
	f, err := ParseSExprString(`(a 1 "two words" (b) ())`)
	require.NoError(t, err)
	require.Len(t, f.Nodes, 1)

	root := f.Nodes[0]
	assert.Equal(t, "a", root.Head())
	v, ok := root.Arg(1)
	require.True(t, ok)
	assert.Equal(t, "two words", v)

	b, ok := root.Find("b")
	require.True(t, ok)
	assert.True(t, b.IsList())
	assert.Len(t, root.Items(), 5)
	assert.True(t, root.Items()[4].IsList())
}

func TestParseSExprErrors(t *testing.T) {
	tests := []string{`(a (b)`, `(a "unterminated)`, `)`}
	for _, in := range tests {
		if _, err := ParseSExprString(in); err == nil {
			t.Errorf("ParseSExprString(%q) expected error", in)
		}
	}
}

func TestParse(t *testing.T) {
	b, err := Parse(strings.NewReader(testBoard))
	require.NoError(t, err)
	require.NoError(t, b.Validate())

	assert.Equal(t, []board.Layer{{ID: 0, Name: "F.Cu"}, {ID: 31, Name: "B.Cu"}}, b.Layers)

	require.Len(t, b.Netclasses, 2)
	assert.Equal(t, "Power", b.Netclasses[1].Name)
	assert.Equal(t, 0.5, b.Netclasses[1].TraceWidth)
	assert.Equal(t, DefaultNetclass.ViaDiameter, b.Netclasses[1].ViaDiameter, "missing rules fall back to KiCad defaults")

	require.Len(t, b.Nets, 2)
	gnd := b.Nets[0]
	assert.Equal(t, "GND", gnd.Name)
	assert.Equal(t, 1, gnd.Netclass)
	assert.Equal(t, []board.PinRef{{Instance: 0, Pad: 0}, {Instance: 1, Pad: 0}}, gnd.Pins)
	assert.Equal(t, 0, b.Nets[1].Netclass)

	require.Len(t, b.Instances, 2)
	r1 := b.Instances[0]
	assert.Equal(t, "R1", r1.Name)
	assert.Equal(t, 0, r1.Layer)
	assert.Equal(t, 90.0, r1.Rotation)
	assert.Equal(t, 0.0, r1.Pads[0].Rotation, "pad angle is stored relative to the footprint")

	j1 := b.Instances[1]
	assert.Equal(t, "J1", j1.Name)
	assert.Equal(t, 31, j1.Layer)
	assert.Len(t, j1.Pads, 3)
	assert.Equal(t, board.PadThroughHole, j1.Pads[2].Type)

	// R1 is rotated 90°: pad offsets along x end up along y.
	p, err := b.PinPosition(board.PinRef{Instance: 0, Pad: 0})
	require.NoError(t, err)
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 50.9125, p.Y, 1e-9)

	w, h := board.PadRotatedSize(&b.Instances[0], &b.Instances[0].Pads[0])
	assert.InDelta(t, 1.4, w, 1e-9)
	assert.InDelta(t, 1.025, h, 1e-9)
	assert.False(t, math.IsNaN(w))
}

func TestParseDefaultsNetclass(t *testing.T) {
	src := `(kicad_pcb (layers (0 "F.Cu" signal)) (net 0 "") (net 1 "A"))`
	b, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []board.Netclass{DefaultNetclass}, b.Netclasses)
	require.Len(t, b.Nets, 1)
	assert.Empty(t, b.Nets[0].Pins)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"not a board", `(kicad_sch (version 1))`},
		{"no layers", `(kicad_pcb (net 1 "A"))`},
		{"no copper", `(kicad_pcb (layers (36 "B.SilkS" user)))`},
		{"pad without size", `(kicad_pcb (layers (0 "F.Cu" signal)) (footprint "x" (at 0 0) (pad "1" smd rect (at 0 0))))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.src)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.src)
			}
		})
	}
}
