package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gridroute/pkg/board"
)

func TestJSONRoundTrip(t *testing.T) {
	in := &board.Board{
		Name:   "rt",
		Layers: []board.Layer{{ID: 0, Name: "F.Cu"}},
		Instances: []board.Instance{{ID: 0, Name: "U1", Layer: 0, Pads: []board.Pad{
			{Name: "1", Type: board.PadThroughHole, Width: 1, Height: 1},
		}}},
		Nets:       []board.Net{{ID: 1, Name: "N", Pins: []board.PinRef{{Instance: 0, Pad: 0}}}},
		Netclasses: []board.Netclass{{ID: 0, Name: "Default", TraceWidth: 0.25}},
	}
	var buf bytes.Buffer
	if err := WriteJSON(in, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"thru_hole"`) {
		t.Errorf("pad type not written as keyword:\n%s", buf.String())
	}
	out, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out.Instances[0].Pads[0].Type != board.PadThroughHole || out.Nets[0].Name != "N" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestReadJSONRejects(t *testing.T) {
	tests := []string{
		`{`,
		`{"layers": [], "typo": 1}`,
		`{"layers": []}`,
	}
	for _, in := range tests {
		if _, err := ReadJSON(strings.NewReader(in)); err == nil {
			t.Errorf("ReadJSON(%q) expected error", in)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"a/board.kicad_pcb", FormatKiCad, false},
		{"board.JSON", FormatJSON, false},
		{"board.brd", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, %v; want %q, wantErr %v", tt.path, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestImportBoardNamesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.kicad_pcb")
	src := `(kicad_pcb (layers (0 "F.Cu" signal)) (net 0 ""))`
	if err := writeFile(path, src); err != nil {
		t.Fatal(err)
	}
	got, data, err := ImportBoard(path)
	if err != nil {
		t.Fatalf("ImportBoard: %v", err)
	}
	if got.Name != "tiny" {
		t.Errorf("Name = %q, want tiny", got.Name)
	}
	if string(got.Source) != src || string(data) != src {
		t.Error("KiCad source text not preserved")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
