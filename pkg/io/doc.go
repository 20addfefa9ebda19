// Package io reads and writes boards.
//
// # Formats
//
// Two input formats are recognized by file extension:
//
//   - .kicad_pcb: a KiCad board, parsed by [kicad.Parse]
//   - .json: the native board format below
//
// # JSON Format
//
//	{
//	  "name": "blinky",
//	  "layers": [{"id": 0, "name": "F.Cu"}, {"id": 31, "name": "B.Cu"}],
//	  "instances": [
//	    {"id": 0, "name": "R1", "position": {"x": 10, "y": 5}, "layer": 0,
//	     "pads": [{"name": "1", "type": "smd", "offset": {"x": -0.8, "y": 0},
//	               "width": 0.9, "height": 1.2}]}
//	  ],
//	  "nets": [{"id": 1, "name": "VCC", "netclass": 0,
//	            "pins": [{"instance": 0, "pad": 0}]}],
//	  "netclasses": [{"id": 0, "name": "Default", "clearance": 0.2,
//	                  "trace_width": 0.25, "via_diameter": 0.8, "via_drill": 0.4}]
//	}
//
// Pad types are "smd" or "thru_hole". Lengths are in millimetres.
//
// # Import
//
// Use [ImportBoard] to read a board from a file path, choosing the parser
// from the extension, or [ReadJSON] to decode the JSON format from any
// io.Reader. Both validate the board structure.
//
// # Export
//
// Use [ExportJSON] or [WriteJSON] to write a board in the JSON format, for
// example to convert a KiCad board into a hand-editable fixture.
//
// [kicad.Parse]: github.com/matzehuels/gridroute/pkg/board/kicad.Parse
package io
