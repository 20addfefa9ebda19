package kicad

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/gridroute/pkg/board"
)

// Default netclass used when the board file carries no net_class blocks
// (KiCad 6+ keeps netclasses in the project file). Values are the KiCad
// defaults in millimetres.
var DefaultNetclass = board.Netclass{
	ID:               0,
	Name:             "Default",
	Clearance:        0.2,
	TraceWidth:       0.25,
	ViaDiameter:      0.8,
	ViaDrill:         0.4,
	MicroViaDiameter: 0.3,
	MicroViaDrill:    0.1,
}

// copperTypes are the layer types that carry copper.
var copperTypes = map[string]bool{"signal": true, "power": true, "mixed": true, "jumper": true}

// ParseFile reads and parses a KiCad board file.
func ParseFile(filename string) (*board.Board, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a KiCad board from r.
func Parse(r io.Reader) (*board.Board, error) {
	file, err := ParseSExpr(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(file.Nodes) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}
	root := file.Nodes[0]
	if root.Head() != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", root.Head())
	}

	b := &board.Board{}

	layersNode, ok := root.Find("layers")
	if !ok {
		return nil, fmt.Errorf("missing (layers ...) section")
	}
	b.Layers, err = parseLayers(layersNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layers: %w", err)
	}

	names, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}

	classOf := map[string]int{}
	b.Netclasses, err = parseNetclasses(root, classOf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse netclasses: %w", err)
	}

	pins := map[int][]board.PinRef{}
	for _, fp := range footprints(root) {
		inst, err := parseFootprint(fp, len(b.Instances), b.Layers, pins)
		if err != nil {
			return nil, fmt.Errorf("failed to parse footprint: %w", err)
		}
		b.Instances = append(b.Instances, *inst)
	}

	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		// Net 0 is KiCad's "unconnected" placeholder.
		if id == 0 {
			continue
		}
		b.Nets = append(b.Nets, board.Net{
			ID:       id,
			Name:     names[id],
			Netclass: classOf[names[id]],
			Pins:     pins[id],
		})
	}
	return b, nil
}

// parseLayers keeps copper layers only, in file order (front to back).
// Example: (layers (0 "F.Cu" signal) (31 "B.Cu" signal) (36 "B.SilkS" user))
func parseLayers(node *Node) ([]board.Layer, error) {
	var layers []board.Layer
	for _, ln := range node.Items()[1:] {
		if !ln.IsList() {
			continue
		}
		items := ln.Items()
		if len(items) < 3 {
			continue
		}
		number, err := strconv.Atoi(items[0].Value())
		if err != nil {
			return nil, fmt.Errorf("layer number %q: %w", items[0].Value(), err)
		}
		name, typ := items[1].Value(), items[2].Value()
		if !copperTypes[typ] || !strings.HasSuffix(name, ".Cu") {
			continue
		}
		layers = append(layers, board.Layer{ID: number, Name: name})
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no copper layers defined")
	}
	return layers, nil
}

// parseNets reads the top-level (net <number> "<name>") declarations.
func parseNets(root *Node) (map[int]string, error) {
	names := map[int]string{}
	for _, nn := range root.FindAll("net") {
		id, err := nn.Int(0)
		if err != nil {
			return nil, err
		}
		name, _ := nn.Arg(1)
		names[id] = name
	}
	return names, nil
}

// parseNetclasses reads KiCad 5 net_class blocks and records, per net name,
// which class it belongs to. Without blocks a single default class is used.
//
//	(net_class Default "This is the default net class."
//	  (clearance 0.2) (trace_width 0.25) (via_dia 0.8) (via_drill 0.4)
//	  (uvia_dia 0.3) (uvia_drill 0.1) (add_net "GND"))
func parseNetclasses(root *Node, classOf map[string]int) ([]board.Netclass, error) {
	blocks := root.FindAll("net_class")
	if len(blocks) == 0 {
		return []board.Netclass{DefaultNetclass}, nil
	}
	classes := make([]board.Netclass, 0, len(blocks))
	for i, nb := range blocks {
		name, ok := nb.Arg(0)
		if !ok {
			return nil, fmt.Errorf("net_class at %s has no name", nb.Pos)
		}
		nc := board.Netclass{
			ID:               i,
			Name:             name,
			Clearance:        rule(nb, "clearance", DefaultNetclass.Clearance),
			TraceWidth:       rule(nb, "trace_width", DefaultNetclass.TraceWidth),
			ViaDiameter:      rule(nb, "via_dia", DefaultNetclass.ViaDiameter),
			ViaDrill:         rule(nb, "via_drill", DefaultNetclass.ViaDrill),
			MicroViaDiameter: rule(nb, "uvia_dia", DefaultNetclass.MicroViaDiameter),
			MicroViaDrill:    rule(nb, "uvia_drill", DefaultNetclass.MicroViaDrill),
		}
		for _, an := range nb.FindAll("add_net") {
			if net, ok := an.Arg(0); ok {
				classOf[net] = i
			}
		}
		classes = append(classes, nc)
	}
	return classes, nil
}

func rule(nb *Node, key string, def float64) float64 {
	n, ok := nb.Find(key)
	if !ok {
		return def
	}
	return n.FloatOr(0, def)
}

func footprints(root *Node) []*Node {
	var out []*Node
	for _, c := range root.Items() {
		if h := c.Head(); h == "footprint" || h == "module" {
			out = append(out, c)
		}
	}
	return out
}

// parseFootprint converts one footprint into an instance and records the
// pads' net membership in pins.
func parseFootprint(fp *Node, id int, layers []board.Layer, pins map[int][]board.PinRef) (*board.Instance, error) {
	inst := &board.Instance{ID: id}
	inst.Name, _ = fp.Arg(0)
	if ref := reference(fp); ref != "" {
		inst.Name = ref
	}

	layerName := "F.Cu"
	if ln, ok := fp.Find("layer"); ok {
		layerName, _ = ln.Arg(0)
	}
	inst.Layer = placementLayer(layers, layerName)

	at, ok := fp.Find("at")
	if !ok {
		return nil, fmt.Errorf("%s at %s: missing (at ...)", inst.Name, fp.Pos)
	}
	var err error
	if inst.Position.X, err = at.Float(0); err != nil {
		return nil, err
	}
	if inst.Position.Y, err = at.Float(1); err != nil {
		return nil, err
	}
	inst.Rotation = at.FloatOr(2, 0)

	for _, pn := range fp.FindAll("pad") {
		pad, net, err := parsePad(pn, inst.Rotation)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", inst.Name, err)
		}
		if net > 0 {
			pins[net] = append(pins[net], board.PinRef{Instance: id, Pad: len(inst.Pads)})
		}
		inst.Pads = append(inst.Pads, *pad)
	}
	return inst, nil
}

// placementLayer maps a footprint layer name to a copper layer id. Unknown
// back-side names fall to the last copper layer, anything else to the first.
func placementLayer(layers []board.Layer, name string) int {
	for _, l := range layers {
		if l.Name == name {
			return l.ID
		}
	}
	if strings.HasPrefix(name, "B.") {
		return layers[len(layers)-1].ID
	}
	return layers[0].ID
}

// reference finds the designator: (fp_text reference "R1") in KiCad 5-7 or
// (property "Reference" "R1") in KiCad 8.
func reference(fp *Node) string {
	for _, t := range fp.FindAll("fp_text") {
		if kind, _ := t.Arg(0); kind == "reference" {
			v, _ := t.Arg(1)
			return v
		}
	}
	for _, p := range fp.FindAll("property") {
		if key, _ := p.Arg(0); key == "Reference" {
			v, _ := p.Arg(1)
			return v
		}
	}
	return ""
}

// parsePad reads (pad "1" smd rect (at x y [rot]) (size w h) (net 1 "GND")).
// KiCad stores the pad angle including the footprint rotation; it is made
// relative here.
func parsePad(pn *Node, fpRotation float64) (*board.Pad, int, error) {
	pad := &board.Pad{}
	pad.Name, _ = pn.Arg(0)
	typ, _ := pn.Arg(1)
	t, err := board.ParsePadType(typ)
	if err != nil {
		return nil, 0, fmt.Errorf("pad %q at %s: %w", pad.Name, pn.Pos, err)
	}
	pad.Type = t

	if at, ok := pn.Find("at"); ok {
		pad.Offset.X = at.FloatOr(0, 0)
		pad.Offset.Y = at.FloatOr(1, 0)
		pad.Rotation = at.FloatOr(2, fpRotation) - fpRotation
	}
	size, ok := pn.Find("size")
	if !ok {
		return nil, 0, fmt.Errorf("pad %q at %s: missing (size ...)", pad.Name, pn.Pos)
	}
	if pad.Width, err = size.Float(0); err != nil {
		return nil, 0, err
	}
	if pad.Height, err = size.Float(1); err != nil {
		return nil, 0, err
	}

	net := 0
	if nn, ok := pn.Find("net"); ok {
		if net, err = nn.Int(0); err != nil {
			return nil, 0, err
		}
	}
	return pad, net, nil
}
