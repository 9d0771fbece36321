package tilebucket

import (
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"

	"github.com/gogpu/tilebucket/internal/clip"
)

// Point is a tile-local 2D coordinate.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) vec() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Ring is one closed boundary loop. The closing edge from the last point
// to the first is implicit; a repeated first point is tolerated.
type Ring []Point

// GeometryCollection is the set of rings handed to a bucket in one call.
type GeometryCollection []Ring

// Len returns the total number of points in all rings.
func (g GeometryCollection) Len() int {
	n := 0
	for _, r := range g {
		n += len(r)
	}
	return n
}

func (r Ring) path() clip.Path {
	p := make(clip.Path, len(r))
	for i, pt := range r {
		p[i] = clip.Point{X: pt.X, Y: pt.Y}
	}
	return p
}

// FromOrbRing converts an orb ring or line string.
func FromOrbRing(ls []orb.Point) Ring {
	r := make(Ring, len(ls))
	for i, p := range ls {
		r[i] = Point{X: p[0], Y: p[1]}
	}
	return r
}

// FromOrbGeometry flattens the polygonal and linear parts of g into a
// collection. Points are ignored.
func FromOrbGeometry(g orb.Geometry) GeometryCollection {
	var out GeometryCollection
	appendOrb(&out, g)
	return out
}

func appendOrb(out *GeometryCollection, g orb.Geometry) {
	switch v := g.(type) {
	case orb.Ring:
		*out = append(*out, FromOrbRing(v))
	case orb.LineString:
		*out = append(*out, FromOrbRing(v))
	case orb.MultiLineString:
		for _, ls := range v {
			*out = append(*out, FromOrbRing(ls))
		}
	case orb.Polygon:
		for _, r := range v {
			*out = append(*out, FromOrbRing(r))
		}
	case orb.MultiPolygon:
		for _, p := range v {
			appendOrb(out, p)
		}
	case orb.Bound:
		*out = append(*out, FromOrbRing(v.ToRing()))
	case orb.Collection:
		for _, c := range v {
			appendOrb(out, c)
		}
	}
}
