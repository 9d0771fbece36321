package clip

import (
	"math"
	"slices"
	"sort"

	polyclip "github.com/ctessum/polyclip-go"
)

// Polygon is an outer ring together with the holes it contains.
type Polygon struct {
	Outer Path
	Holes []Path
}

// Rings returns the outer ring followed by the holes.
func (p Polygon) Rings() []Path {
	return append([]Path{p.Outer}, p.Holes...)
}

// Clipper accumulates closed subject paths and merges them on Execute.
// The zero value is ready to use. A Clipper is not safe for concurrent use.
type Clipper struct {
	paths []Path
}

// AddPath appends a closed subject path. Repeated and collinear points are
// removed; paths left with fewer than three points carry no area and are
// ignored.
func (c *Clipper) AddPath(p Path) {
	p = simplify(p)
	if len(p) < 3 {
		return
	}
	c.paths = append(c.paths, p)
}

// Len returns the number of accumulated paths.
func (c *Clipper) Len() int {
	return len(c.paths)
}

// Clear drops all accumulated paths.
func (c *Clipper) Clear() {
	clear(c.paths)
	c.paths = c.paths[:0]
}

// Execute performs ct over the accumulated paths and returns the resulting
// simple rings: every outer ring (positive area) followed by its holes
// (negative area). The accumulator is left untouched.
//
// Under EvenOdd all paths form one subject and a point is inside when it
// is enclosed an odd number of times. Under NonZero the result is the
// union of the paths; overlaps within a single path are resolved even-odd.
func (c *Clipper) Execute(ct ClipType, rule FillRule) []Path {
	if ct != Union || len(c.paths) == 0 {
		return nil
	}

	var result polyclip.Polygon
	switch rule {
	case NonZero:
		for _, p := range c.paths {
			result = result.Construct(polyclip.UNION, resolve(polyclip.Polygon{contour(p)}))
		}
	default:
		paths := cancelDuplicates(c.paths)
		if len(paths) == 0 {
			return nil
		}
		subject := make(polyclip.Polygon, 0, len(paths))
		for _, p := range paths {
			subject = append(subject, contour(p))
		}
		result = resolve(subject)
	}

	rings := make([]Path, 0, len(result))
	for _, cont := range result {
		p := make(Path, len(cont))
		for i, pt := range cont {
			p[i] = Point{X: pt.X, Y: pt.Y}
		}
		rings = append(rings, p)
	}

	var out []Path
	for _, poly := range Nest(rings, EvenOdd) {
		out = append(out, poly.Rings()...)
	}
	return out
}

// ExecutePolygons is Execute with the rings grouped into polygons.
func (c *Clipper) ExecutePolygons(ct ClipType, rule FillRule) []Polygon {
	return Group(c.Execute(ct, rule))
}

func contour(p Path) polyclip.Contour {
	c := make(polyclip.Contour, len(p))
	for i, pt := range p {
		c[i] = polyclip.Point{X: pt.X, Y: pt.Y}
	}
	return c
}

// resolve intersects subject with a rectangle enclosing it, which runs the
// full sweep and returns its contours split at every crossing.
func resolve(subject polyclip.Polygon) polyclip.Polygon {
	bb := subject.BoundingBox()
	frame := polyclip.Polygon{{
		{X: bb.Min.X - 1, Y: bb.Min.Y - 1},
		{X: bb.Max.X + 1, Y: bb.Min.Y - 1},
		{X: bb.Max.X + 1, Y: bb.Max.Y + 1},
		{X: bb.Min.X - 1, Y: bb.Max.Y + 1},
	}}
	return subject.Construct(polyclip.INTERSECTION, frame)
}

// cancelDuplicates removes pairs of identical paths, which enclose their
// area twice and cancel under the even-odd rule.
func cancelDuplicates(paths []Path) []Path {
	keys := make(map[string][]int)
	for i, p := range paths {
		k := canonicalKey(p)
		keys[k] = append(keys[k], i)
	}
	out := make([]Path, 0, len(paths))
	for i, p := range paths {
		same := keys[canonicalKey(p)]
		pos := slices.Index(same, i)
		// An unpaired last copy survives.
		if len(same)%2 == 1 && pos == len(same)-1 {
			out = append(out, p)
		}
	}
	return out
}

// canonicalKey identifies a ring independent of start point and direction.
func canonicalKey(p Path) string {
	start := 0
	for i, q := range p {
		if q.X < p[start].X || (q.X == p[start].X && q.Y < p[start].Y) {
			start = i
		}
	}
	n := len(p)
	fwd := make(Path, n)
	rev := make(Path, n)
	for i := range n {
		fwd[i] = p[(start+i)%n]
		rev[i] = p[(start-i+n)%n]
	}
	if lessPath(rev, fwd) {
		fwd = rev
	}
	b := make([]byte, 0, n*16)
	for _, q := range fwd {
		b = appendFloat(b, q.X)
		b = appendFloat(b, q.Y)
	}
	return string(b)
}

func lessPath(a, b Path) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i].X < b[i].X || (a[i].X == b[i].X && a[i].Y < b[i].Y)
		}
	}
	return false
}

func appendFloat(b []byte, f float64) []byte {
	u := math.Float64bits(f)
	for i := range 8 {
		b = append(b, byte(u>>(8*i)))
	}
	return b
}

// Nest classifies simple, mutually non-crossing rings under rule. A ring
// whose inside is filled and outside empty becomes an outer ring oriented
// to positive area; the opposite becomes a hole with negative area. Rings
// with the same fill on both sides bound nothing and are dropped. The
// result is grouped with Group.
func Nest(rings []Path, rule FillRule) []Polygon {
	type ring struct {
		path Path
		area float64
	}
	rs := make([]ring, 0, len(rings))
	for _, r := range rings {
		r = simplify(r)
		if a := Area(r); len(r) >= 3 && a != 0 {
			rs = append(rs, ring{r, a})
		}
	}

	oriented := make([]Path, 0, len(rs))
	for i, r := range rs {
		// Winding just inside r, where r itself counts.
		own := sign(r.area)
		w := own
		probe := sidePoint(r.path, r.area > 0)
		for j, o := range rs {
			if j != i && Contains(o.path, probe) {
				w += sign(o.area)
			}
		}
		in, out := rule.inside(w), rule.inside(w-own)
		switch {
		case in && !out:
			oriented = append(oriented, orient(r.path, r.area, true))
		case !in && out:
			oriented = append(oriented, orient(r.path, r.area, false))
		}
	}
	return Group(oriented)
}

func sign(a float64) int {
	if a < 0 {
		return -1
	}
	return 1
}

// orient returns p with positive area when outer is set, negative otherwise.
func orient(p Path, area float64, outer bool) Path {
	if (area > 0) == outer {
		return p
	}
	out := make(Path, len(p))
	for i := range p {
		out[len(p)-1-i] = p[i]
	}
	return out
}

// simplify drops repeated points and points on a straight line between
// their neighbours.
func simplify(p Path) Path {
	out := make(Path, 0, len(p))
	for _, q := range p {
		if len(out) > 0 && q == out[len(out)-1] {
			continue
		}
		for len(out) >= 2 && straight(out[len(out)-2], out[len(out)-1], q) {
			out = out[:len(out)-1]
		}
		out = append(out, q)
	}

	// The seam between the last and first point.
seam:
	for len(out) >= 3 {
		n := len(out)
		switch {
		case out[n-1] == out[0], straight(out[n-2], out[n-1], out[0]):
			out = out[:n-1]
		case straight(out[n-1], out[0], out[1]):
			out = out[1:]
		default:
			break seam
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// straight reports whether cur lies on the segment prev-next.
func straight(prev, cur, next Point) bool {
	return cur.Sub(prev).Cross(next.Sub(cur)) == 0 && between(prev, cur, next)
}

// between reports whether cur lies on the segment prev-next.
func between(prev, cur, next Point) bool {
	return (cur.X-prev.X)*(next.X-cur.X) >= 0 && (cur.Y-prev.Y)*(next.Y-cur.Y) >= 0
}

// Group assigns every hole (negative area) to the smallest outer ring
// (positive area) containing it. Holes with no enclosing outer ring are
// dropped.
func Group(rings []Path) []Polygon {
	var polys []Polygon
	var areas []float64
	var holes []Path
	for _, r := range rings {
		a := Area(r)
		switch {
		case a > 0:
			polys = append(polys, Polygon{Outer: r})
			areas = append(areas, a)
		case a < 0:
			holes = append(holes, r)
		}
	}

	for _, h := range holes {
		probe := sidePoint(h, true)
		best := -1
		for i, p := range polys {
			if !Contains(p.Outer, probe) {
				continue
			}
			if best < 0 || areas[i] < areas[best] {
				best = i
			}
		}
		if best >= 0 {
			polys[best].Holes = append(polys[best].Holes, h)
		}
	}

	idx := make([]int, len(polys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return areas[idx[i]] > areas[idx[j]] })
	out := make([]Polygon, len(polys))
	for i, k := range idx {
		out[i] = polys[k]
	}
	return out
}

// sidePoint returns a point just beside the midpoint of the longest edge
// of p, on the left of the edge direction when left is set. For a positive
// area ring the left side is its inside; for a hole it is the filled side.
func sidePoint(p Path, left bool) Point {
	n := len(p)
	best, bestLen := 0, -1.0
	for i := 0; i < n; i++ {
		d := p[(i+1)%n].Sub(p[i])
		if l := math.Hypot(d.X, d.Y); l > bestLen {
			best, bestLen = i, l
		}
	}
	a, b := p[best], p[(best+1)%n]
	d := b.Sub(a)
	off := math.Min(bestLen*1e-3, 1e-3) / bestLen
	if !left {
		off = -off
	}
	return Point{
		X: (a.X+b.X)/2 - d.Y*off,
		Y: (a.Y+b.Y)/2 + d.X*off,
	}
}
