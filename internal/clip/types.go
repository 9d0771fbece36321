package clip

import "math"

// Point is a 2D point in tile space.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Cross returns the z component of the cross product of p and q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Path is a closed ring of points. The closing edge from the last point
// back to the first is implicit.
type Path []Point

// FillRule decides which regions of overlapping paths are inside.
type FillRule int

const (
	// EvenOdd fills regions crossed an odd number of times.
	EvenOdd FillRule = iota
	// NonZero fills regions with a non-zero winding number.
	NonZero
)

// String returns the name of the fill rule.
func (r FillRule) String() string {
	switch r {
	case EvenOdd:
		return "EvenOdd"
	case NonZero:
		return "NonZero"
	default:
		return "Unknown"
	}
}

func (r FillRule) inside(winding int) bool {
	if r == NonZero {
		return winding != 0
	}
	return winding%2 != 0
}

// ClipType is the boolean operation performed by Execute.
// Only union is supported.
type ClipType int

const (
	// Union merges all subject paths under the fill rule.
	Union ClipType = iota
)

// Area returns the signed shoelace area of the path. Counter-clockwise
// paths (in y-up axes) have positive area.
func Area(p Path) float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum float64
	j := n - 1
	for i := 0; i < n; i++ {
		sum += p[j].X*p[i].Y - p[i].X*p[j].Y
		j = i
	}
	return sum / 2
}

// Contains reports whether pt lies inside p using the even-odd rule.
// Points exactly on the boundary may report either result.
func Contains(p Path, pt Point) bool {
	n := len(p)
	in := false
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				in = !in
			}
		}
		j = i
	}
	return in
}

// Bounds returns the axis-aligned bounding box of p.
func Bounds(p Path) (lo, hi Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	lo = Point{X: math.Inf(1), Y: math.Inf(1)}
	hi = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, q := range p {
		lo.X = math.Min(lo.X, q.X)
		lo.Y = math.Min(lo.Y, q.Y)
		hi.X = math.Max(hi.X, q.X)
		hi.Y = math.Max(hi.Y, q.Y)
	}
	return lo, hi
}
