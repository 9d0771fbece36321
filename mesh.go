package tilebucket

// Triangle is a triangle in tile coordinates.
type Triangle [3]Point

// FillTriangles calls fn for every fill triangle the bucket wrote, in
// buffer order.
func (b *FillBucket) FillTriangles(fn func(Triangle)) {
	eachTriangle(b.triangleGroups, b.bufs.FillVertices, b.bufs.FillTriangles,
		b.fillVertexStart, b.fillTriangleStart, fn)
}

// LineTriangles calls fn for every outline triangle the bucket wrote, in
// buffer order.
func (b *FillBucket) LineTriangles(fn func(Triangle)) {
	eachTriangle(b.lineGroups, b.bufs.LineVertices, b.bufs.LineTriangles,
		b.lineVertexStart, b.lineTriangleStart, fn)
}

func eachTriangle(groups groupList, verts *VertexBuffer, elems *ElementsBuffer,
	vertexStart, elementStart int, fn func(Triangle)) {
	vbase, ebase := vertexStart, elementStart
	for _, g := range groups {
		for i := range g.ElementCount {
			var t Triangle
			for k, idx := range elems.At(ebase + i) {
				x, y := verts.At(vbase + int(idx))
				t[k] = Point{X: float64(x), Y: float64(y)}
			}
			fn(t)
		}
		vbase += g.VertexCount
		ebase += g.ElementCount
	}
}
