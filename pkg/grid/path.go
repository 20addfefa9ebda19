package grid

import (
	"fmt"
	"math"
)

// Path is an ordered sequence of locations forming one connected route.
type Path []Location

// Validate checks that every step is an in-plane move to one of the eight
// neighbors or a single-layer via hop, never both at once.
func (p Path) Validate() error {
	for i := 1; i < len(p); i++ {
		if !Adjacent(p[i-1], p[i]) {
			return fmt.Errorf("%w: %v -> %v at step %d", ErrDisconnected, p[i-1], p[i], i)
		}
	}
	return nil
}

// Wirelength sums the in-plane length of the path in grid units. Via hops
// contribute nothing. Compacted paths are measured the same way.
func (p Path) Wirelength() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		if a.Layer != b.Layer {
			continue
		}
		total += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return total
}

// ViaCount counts layer changes along the path.
func (p Path) ViaCount() int {
	n := 0
	for i := 1; i < len(p); i++ {
		if p[i-1].Layer != p[i].Layer {
			n++
		}
	}
	return n
}

// Layers returns the distinct layers the path visits, in first-visit order.
func (p Path) Layers() []int {
	var out []int
	seen := map[int]bool{}
	for _, l := range p {
		if !seen[l.Layer] {
			seen[l.Layer] = true
			out = append(out, l.Layer)
		}
	}
	return out
}

// Compact drops interior points that continue in the same direction as the
// previous step, leaving the corners of the polyline. The result is no
// longer a sequence of adjacent cells; it is meant for emitting segments.
func (p Path) Compact() Path {
	if len(p) < 3 {
		return p.Clone()
	}
	out := Path{p[0]}
	for i := 1; i < len(p)-1; i++ {
		if direction(p[i-1], p[i]) != direction(p[i], p[i+1]) {
			out = append(out, p[i])
		}
	}
	return append(out, p[len(p)-1])
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func direction(a, b Location) [3]int {
	return [3]int{sign(b.X - a.X), sign(b.Y - a.Y), sign(b.Layer - a.Layer)}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
