package tilebucket

import "github.com/golang/geo/r2"

// LineWidth is the half-width of the stroked ring outline in tile units.
const LineWidth = 25.0

const (
	// lineVerticesPerPoint is the vertex cost of one ring point: an edge
	// quad plus two bevel/anchor pairs.
	lineVerticesPerPoint = 8
	// lineTrianglesPerPoint is the triangle cost of one ring point: two
	// for the quad and one per bevel.
	lineTrianglesPerPoint = 4
)

// scaled normalizes v and scales it to LineWidth. A zero vector stays zero.
func scaled(v r2.Point) r2.Point {
	return v.Normalize().Mul(LineWidth)
}

// bevelAt returns the join vector at corner at, pointing away from both
// neighbours a and b along their bisector.
func bevelAt(at, a, b r2.Point) r2.Point {
	u1 := scaled(a.Sub(at))
	u2 := scaled(b.Sub(at))
	return scaled(u1.Add(u2).Mul(-0.5))
}

// appendLineJoins writes the stroked outline of ring into verts and elems.
// For every point i with predecessor prev it emits the quad around the
// edge prev->i and one bevel triangle at each end. Indices are relative to
// groupStart, the first vertex of the current line group.
func appendLineJoins(ring []r2.Point, verts *VertexBuffer, elems *ElementsBuffer, groupStart int) {
	n := len(ring)
	for i := 0; i < n; i++ {
		prev := (i + n - 1) % n
		pprev := (prev + n - 1) % n
		next := (i + 1) % n
		p, c := ring[prev], ring[i]

		width := scaled(c.Sub(p).Ortho())
		cur := verts.Index() - groupStart

		verts.Add(p.X+width.X, p.Y+width.Y)
		verts.Add(p.X-width.X, p.Y-width.Y)
		verts.Add(c.X+width.X, c.Y+width.Y)
		verts.Add(c.X-width.X, c.Y-width.Y)
		elems.Add(cur, cur+1, cur+2)
		elems.Add(cur+1, cur+3, cur+2)

		// Attach each bevel to the quad corner on the same side as the
		// bevel vector.
		b := bevelAt(p, c, ring[pprev])
		verts.Add(p.X+b.X, p.Y+b.Y)
		verts.Add(p.X, p.Y)
		if width.Dot(b) > 0 {
			elems.Add(cur+5, cur+4, cur)
		} else {
			elems.Add(cur+5, cur+4, cur+1)
		}

		b = bevelAt(c, ring[next], p)
		verts.Add(c.X+b.X, c.Y+b.Y)
		verts.Add(c.X, c.Y)
		if width.Dot(b) > 0 {
			elems.Add(cur+7, cur+6, cur+2)
		} else {
			elems.Add(cur+7, cur+6, cur+3)
		}
	}
}
