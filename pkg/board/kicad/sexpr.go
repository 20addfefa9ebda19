// Package kicad reads KiCad board files (.kicad_pcb) into a [board.Board].
//
// The file is parsed with a small s-expression grammar, then the routing
// relevant parts are extracted: copper layers, nets, netclasses (KiCad 5
// net_class blocks, or KiCad defaults when the board has none), and
// footprints with their pads. Both the KiCad 5 "module" and the KiCad 6+
// "footprint" keywords are accepted.
package kicad

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// SExprLexer tokenizes KiCad s-expressions.
var SExprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Atom", Pattern: `[^\s()"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// File is a sequence of top-level expressions.
type File struct {
	Nodes []*Node `parser:"@@*"`
}

// Node is an atom, a quoted string or a parenthesized list.
type Node struct {
	Pos lexer.Position

	Atom *string `parser:"  @Atom"`
	Str  *string `parser:"| @String"`
	List *List   `parser:"| @@"`
}

// List is a parenthesized sequence of nodes.
type List struct {
	Open  string  `parser:"@LParen"`
	Items []*Node `parser:"@@*"`
	Close string  `parser:"@RParen"`
}

var sexprParser = participle.MustBuild[File](
	participle.Lexer(SExprLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace"),
)

// ParseSExpr parses s-expressions from r.
func ParseSExpr(r io.Reader) (*File, error) {
	return sexprParser.Parse("", r)
}

// ParseSExprString parses s-expressions from a string.
func ParseSExprString(s string) (*File, error) {
	return sexprParser.ParseString("", s)
}

// IsList reports whether n is a parenthesized list.
func (n *Node) IsList() bool { return n != nil && n.List != nil }

// Value returns the text of an atom or string node, or "" for lists.
func (n *Node) Value() string {
	switch {
	case n == nil:
		return ""
	case n.Atom != nil:
		return *n.Atom
	case n.Str != nil:
		return *n.Str
	}
	return ""
}

// Items returns the children of a list node.
func (n *Node) Items() []*Node {
	if !n.IsList() {
		return nil
	}
	return n.List.Items
}

// Head returns the leading atom of a list, e.g. "pad" for (pad "1" smd ...).
func (n *Node) Head() string {
	items := n.Items()
	if len(items) == 0 || items[0].IsList() {
		return ""
	}
	return items[0].Value()
}

// Find returns the first child list whose head is key.
func (n *Node) Find(key string) (*Node, bool) {
	for _, c := range n.Items() {
		if c.Head() == key {
			return c, true
		}
	}
	return nil, false
}

// FindAll returns every child list whose head is key.
func (n *Node) FindAll(key string) []*Node {
	var out []*Node
	for _, c := range n.Items() {
		if c.Head() == key {
			out = append(out, c)
		}
	}
	return out
}

// Arg returns the i-th element after the head as text.
func (n *Node) Arg(i int) (string, bool) {
	items := n.Items()
	if i+1 >= len(items) || items[i+1].IsList() {
		return "", false
	}
	return items[i+1].Value(), true
}

// Float returns the i-th element after the head as a number.
func (n *Node) Float(i int) (float64, error) {
	s, ok := n.Arg(i)
	if !ok {
		return 0, fmt.Errorf("(%s) at %s: missing argument %d", n.Head(), n.Pos, i)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("(%s) at %s: %w", n.Head(), n.Pos, err)
	}
	return v, nil
}

// Int returns the i-th element after the head as an integer.
func (n *Node) Int(i int) (int, error) {
	s, ok := n.Arg(i)
	if !ok {
		return 0, fmt.Errorf("(%s) at %s: missing argument %d", n.Head(), n.Pos, i)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("(%s) at %s: %w", n.Head(), n.Pos, err)
	}
	return v, nil
}

// FloatOr returns the i-th element as a number, or def when absent or malformed.
func (n *Node) FloatOr(i int, def float64) float64 {
	v, err := n.Float(i)
	if err != nil {
		return def
	}
	return v
}
