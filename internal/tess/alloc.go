package tess

// Allocator supplies the scratch and output memory used by a Tessellator.
// Slices handed out stay valid until the next Reset.
type Allocator interface {
	// Floats returns a zeroed slice of n float64 values.
	Floats(n int) []float64
	// Ints returns a zeroed slice of n int values.
	Ints(n int) []int
	// Reset releases everything handed out since the previous Reset.
	Reset()
}

// AllocHints sizes the fixed buckets of an Arena.
type AllocHints struct {
	MeshEdgeBucketSize   int
	MeshVertexBucketSize int
	MeshFaceBucketSize   int
	DictNodeBucketSize   int
	RegionBucketSize     int
	// ExtraVertices is headroom for vertices created while tessellating.
	ExtraVertices int
}

// DefaultAllocHints returns the hints used by fill buckets.
func DefaultAllocHints() AllocHints {
	return AllocHints{
		MeshEdgeBucketSize:   64,
		MeshVertexBucketSize: 64,
		MeshFaceBucketSize:   32,
		DictNodeBucketSize:   64,
		RegionBucketSize:     8,
		ExtraVertices:        128,
	}
}

// Arena is a fixed-capacity Allocator. Requests that do not fit in the
// remaining capacity fall back to the heap and are counted as overflows.
type Arena struct {
	floats    []float64
	ints      []int
	overflows int
}

// NewArena creates an arena sized from h. Float capacity holds x/y pairs
// for every vertex bucket slot plus the extra vertices. Int capacity holds
// one index per vertex, a triangle per face and region slot, and the
// edge and dictionary buckets.
func NewArena(h AllocHints) *Arena {
	vertices := h.MeshVertexBucketSize + h.ExtraVertices
	ints := vertices + 3*h.MeshFaceBucketSize*max(h.RegionBucketSize, 1) +
		h.MeshEdgeBucketSize + h.DictNodeBucketSize
	return &Arena{
		floats: make([]float64, 0, 2*vertices),
		ints:   make([]int, 0, ints),
	}
}

// Floats implements Allocator.
func (a *Arena) Floats(n int) []float64 {
	l := len(a.floats)
	if l+n > cap(a.floats) {
		a.overflows++
		return make([]float64, n)
	}
	a.floats = a.floats[:l+n]
	s := a.floats[l : l+n : l+n]
	clear(s)
	return s
}

// Ints implements Allocator.
func (a *Arena) Ints(n int) []int {
	l := len(a.ints)
	if l+n > cap(a.ints) {
		a.overflows++
		return make([]int, n)
	}
	a.ints = a.ints[:l+n]
	s := a.ints[l : l+n : l+n]
	clear(s)
	return s
}

// Reset implements Allocator. The overflow count is kept.
func (a *Arena) Reset() {
	a.floats = a.floats[:0]
	a.ints = a.ints[:0]
}

// Overflows returns how many requests fell back to the heap.
func (a *Arena) Overflows() int {
	return a.overflows
}

// Capacity returns the fixed float and int capacities.
func (a *Arena) Capacity() (floats, ints int) {
	return cap(a.floats), cap(a.ints)
}

// HeapAllocator allocates every request with make.
type HeapAllocator struct{}

// Floats implements Allocator.
func (HeapAllocator) Floats(n int) []float64 { return make([]float64, n) }

// Ints implements Allocator.
func (HeapAllocator) Ints(n int) []int { return make([]int, n) }

// Reset implements Allocator.
func (HeapAllocator) Reset() {}
