// Package boardtest provides small boards for tests.
package boardtest

import "github.com/matzehuels/gridroute/pkg/board"

// Crossing returns a two-layer board with an SMD part U1 on the front and a
// through-hole header J1 on the back. Nets A and B cross between them.
//
//	U1.1 (100,50) ---- A ----> J1.2 (110,55)
//	U1.2 (100,52) ---- B ----> J1.1 (110,50)
func Crossing() *board.Board {
	return &board.Board{
		Name:   "crossing",
		Layers: []board.Layer{{ID: 0, Name: "F.Cu"}, {ID: 31, Name: "B.Cu"}},
		Instances: []board.Instance{
			{
				ID: 0, Name: "U1", Position: board.Point{X: 100, Y: 50}, Layer: 0,
				Pads: []board.Pad{
					{Name: "1", Type: board.PadSMD, Width: 1, Height: 0.6},
					{Name: "2", Type: board.PadSMD, Offset: board.Point{Y: 2}, Width: 1, Height: 0.6},
				},
			},
			{
				ID: 1, Name: "J1", Position: board.Point{X: 110, Y: 50}, Layer: 31,
				Pads: []board.Pad{
					{Name: "1", Type: board.PadThroughHole, Width: 1.7, Height: 1.7},
					{Name: "2", Type: board.PadThroughHole, Offset: board.Point{Y: 5}, Width: 1.7, Height: 1.7},
				},
			},
		},
		Nets: []board.Net{
			{ID: 1, Name: "A", Pins: []board.PinRef{{Instance: 0, Pad: 0}, {Instance: 1, Pad: 1}}},
			{ID: 2, Name: "B", Pins: []board.PinRef{{Instance: 0, Pad: 1}, {Instance: 1, Pad: 0}}},
		},
		Netclasses: []board.Netclass{
			{ID: 0, Name: "Default", Clearance: 0.2, TraceWidth: 0.25, ViaDiameter: 0.8, ViaDrill: 0.4},
		},
	}
}
