package grid

import "fmt"

// Location addresses one grid cell. It is comparable and can be used as a map key.
type Location struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Layer int `json:"layer"`
}

// String formats the location as "(x, y, layer)".
func (l Location) String() string {
	return fmt.Sprintf("(%d, %d, %d)", l.X, l.Y, l.Layer)
}

// SameXY reports whether l and o share the in-plane position.
func (l Location) SameXY(o Location) bool {
	return l.X == o.X && l.Y == o.Y
}

// Adjacent reports whether b is one legal step away from a: an in-plane move
// to one of the eight neighbors on the same layer, or a via hop to the next
// layer at the same (x, y). A location is not adjacent to itself.
func Adjacent(a, b Location) bool {
	dx, dy, dl := abs(a.X-b.X), abs(a.Y-b.Y), abs(a.Layer-b.Layer)
	if dl == 0 {
		return dx <= 1 && dy <= 1 && dx+dy > 0
	}
	return dl == 1 && dx == 0 && dy == 0
}

// Rect is an inclusive rectangle of in-plane cell coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

// Expand grows the rectangle by n cells on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{MinX: r.MinX - n, MinY: r.MinY - n, MaxX: r.MaxX + n, MaxY: r.MaxY + n}
}

// clip restricts r to a w×h plane.
func (r Rect) clip(w, h int) Rect {
	return Rect{
		MinX: max(r.MinX, 0),
		MinY: max(r.MinY, 0),
		MaxX: min(r.MaxX, w-1),
		MaxY: min(r.MaxY, h-1),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
