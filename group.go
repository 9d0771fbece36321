package tilebucket

const (
	// MaxGroupVertices is the largest vertex count one group may address
	// with 16-bit indices.
	MaxGroupVertices = 65535

	// MaxGroupIndices is the largest raw index count of one group.
	MaxGroupIndices = 65535
)

// Group is a sub-range of a shared vertex and index buffer that is drawn
// with one indexed draw call.
type Group struct {
	// VertexCount is the number of vertices the group covers.
	VertexCount int
	// ElementCount is the number of triangles the group covers.
	ElementCount int
}

// IndexCount returns the raw number of indices, three per triangle.
func (g Group) IndexCount() int {
	return 3 * g.ElementCount
}

func (g Group) fits(vertices, elements int) bool {
	return g.VertexCount+vertices <= MaxGroupVertices &&
		3*(g.ElementCount+elements) <= MaxGroupIndices
}

// groupList is an ordered sequence of groups filled greedily.
type groupList []Group

// reserve returns the group that will receive vertices and elements more
// records: the last group if both bounds still hold, otherwise a new one.
// The caller has already checked that the request fits an empty group.
func (l *groupList) reserve(vertices, elements int) *Group {
	if n := len(*l); n > 0 && (*l)[n-1].fits(vertices, elements) {
		return &(*l)[n-1]
	}
	*l = append(*l, Group{})
	Logger().Debug("tilebucket: new draw group",
		"groups", len(*l), "vertices", vertices, "elements", elements)
	return &(*l)[len(*l)-1]
}

// totals returns the summed vertex and element counts.
func (l groupList) totals() (vertices, elements int) {
	for _, g := range l {
		vertices += g.VertexCount
		elements += g.ElementCount
	}
	return vertices, elements
}

// fitsEmpty reports whether a request can be held by a single group.
func fitsEmpty(vertices, elements int) bool {
	return Group{}.fits(vertices, elements)
}
