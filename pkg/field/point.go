package field

import "fmt"

// Side identifies one of the two competing teams.
type Side bool

const (
	Ally  Side = false
	Enemy Side = true
)

// Other returns the opposing side.
func (s Side) Other() Side { return !s }

// Index returns 0 for Ally and 1 for Enemy, for indexing per-side arrays.
func (s Side) Index() int {
	if s {
		return 1
	}
	return 0
}

func (s Side) String() string {
	if s {
		return "enemy"
	}
	return "ally"
}

// ParseSide converts "ally" or "enemy" back to a Side. An empty string is Ally.
func ParseSide(s string) (Side, error) {
	switch s {
	case "", "ally":
		return Ally, nil
	case "enemy":
		return Enemy, nil
	}
	return Ally, fmt.Errorf("unknown side %q", s)
}

// Sides lists both sides in index order.
func Sides() [2]Side { return [2]Side{Ally, Enemy} }

// Point is a signed grid coordinate. Off-board values are allowed so callers
// can probe neighbours before checking Inside.
type Point struct {
	X int8 `json:"x"`
	Y int8 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: int8(x), Y: int8(y)} }

// Add returns the component-wise sum.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Neighbor reports whether o is within Chebyshev distance 1 of p.
func (p Point) Neighbor(o Point) bool {
	return max(abs8(p.X-o.X), abs8(p.Y-o.Y)) <= 1
}

// Dist2 returns the squared euclidean distance.
func (p Point) Dist2(o Point) int {
	dx, dy := int(p.X)-int(o.X), int(p.Y)-int(o.Y)
	return dx*dx + dy*dy
}

// Less orders points by x then y.
func (p Point) Less(o Point) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// Directions8 are the eight king-move offsets, in a fixed order.
var Directions8 = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// directions4 are the orthogonal offsets used by region flood fill.
var directions4 = [4]Point{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

func abs8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}
