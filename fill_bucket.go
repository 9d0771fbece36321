package tilebucket

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/gogpu/tilebucket/internal/clip"
	"github.com/gogpu/tilebucket/internal/tess"
)

// FillBucket holds the fill and outline geometry of one style layer in
// one tile.
//
// A FillBucket is not safe for concurrent use. AddGeometry runs on the
// build goroutine; Upload hands the bucket over to the render goroutine.
type FillBucket struct {
	bufs    *Buffers
	clipper clip.Clipper
	tess    tessellator

	// Buffer positions at construction. Group offsets are relative to these.
	fillVertexStart   int
	fillTriangleStart int
	lineVertexStart   int
	lineTriangleStart int

	triangleGroups groupList
	lineGroups     groupList

	failed   error
	uploaded bool
	dropped  int
}

// tessellator triangulates the merged rings of a bucket. Output vertices
// map back to input points through VertexIndices; tess.Undef marks
// vertices and element corners with no input point.
type tessellator interface {
	AddContour(pts []clip.Point)
	Tessellate(rule tess.WindingRule) error
	Vertices() []float64
	VertexCount() int
	VertexIndices() []int
	Elements() []int
	ElementCount() int
}

// NewFillBucket creates a bucket appending to bufs and records the
// current end of every buffer as the bucket's base offset.
func NewFillBucket(bufs *Buffers, opts ...BucketOption) *FillBucket {
	o := defaultBucketOptions()
	for _, opt := range opts {
		opt(&o)
	}
	alloc := o.alloc
	if alloc == nil {
		alloc = tess.NewArena(o.hints)
	}
	return &FillBucket{
		bufs:              bufs,
		tess:              tess.New(alloc),
		fillVertexStart:   bufs.FillVertices.Index(),
		fillTriangleStart: bufs.FillTriangles.Index(),
		lineVertexStart:   bufs.LineVertices.Index(),
		lineTriangleStart: bufs.LineTriangles.Index(),
	}
}

// AddGeometry merges the rings of g under the even-odd rule and appends
// the fill triangles and outline mesh to the shared buffers.
//
// If the merged geometry cannot fit into a single draw group the call
// returns an error wrapping ErrGeometryTooLarge without writing anything,
// and the bucket is marked failed. Once the shared buffers have been
// uploaded, by this bucket or another, AddGeometry returns
// ErrAlreadyUploaded.
func (b *FillBucket) AddGeometry(g GeometryCollection) error {
	if b.failed != nil {
		return fmt.Errorf("%w: %w", ErrBucketFailed, b.failed)
	}
	if b.uploaded || b.bufs.sealed() {
		return ErrAlreadyUploaded
	}
	for _, r := range g {
		if len(r) > 0 {
			b.clipper.AddPath(r.path())
		}
	}
	return b.tessellate()
}

func (b *FillBucket) fail(err error) error {
	b.failed = err
	return err
}

// checkShared verifies that nothing else appended to the shared buffers
// since this bucket last wrote to them.
func (b *FillBucket) checkShared() error {
	fv, ft := b.triangleGroups.totals()
	lv, lt := b.lineGroups.totals()
	checks := [...]struct {
		name      string
		got, want int
	}{
		{"fill vertices", b.bufs.FillVertices.Index(), b.fillVertexStart + fv},
		{"fill triangles", b.bufs.FillTriangles.Index(), b.fillTriangleStart + ft},
		{"line vertices", b.bufs.LineVertices.Index(), b.lineVertexStart + lv},
		{"line triangles", b.bufs.LineTriangles.Index(), b.lineTriangleStart + lt},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%w: %s at %d, expected %d", ErrInterleavedBuild, c.name, c.got, c.want)
		}
	}
	return nil
}

func (b *FillBucket) tessellate() error {
	if b.clipper.Len() == 0 {
		return nil
	}
	rings := b.clipper.Execute(clip.Union, clip.EvenOdd)
	b.clipper.Clear()
	if len(rings) == 0 {
		return nil
	}
	if err := b.checkShared(); err != nil {
		return b.fail(err)
	}

	total := 0
	for _, r := range rings {
		total += len(r)
	}
	lineVertices := lineVerticesPerPoint * total
	lineTriangles := lineTrianglesPerPoint * total
	if !fitsEmpty(lineVertices, lineTriangles) {
		return b.fail(fmt.Errorf("%w: %d ring points need %d line vertices and %d line indices",
			ErrGeometryTooLarge, total, lineVertices, 3*lineTriangles))
	}

	// Fill tessellation runs before any write so an oversized result
	// leaves the buffers untouched.
	for _, r := range rings {
		b.tess.AddContour(r)
	}
	tessErr := b.tess.Tessellate(tess.WindingRuleOdd)
	fillVertices, fillTriangles := 0, 0
	if tessErr == nil {
		fillVertices = total
		for _, idx := range b.tess.VertexIndices() {
			if idx == tess.Undef {
				fillVertices++
			}
		}
		fillTriangles = b.tess.ElementCount()
		if !fitsEmpty(fillVertices, fillTriangles) {
			return b.fail(fmt.Errorf("%w: %d fill vertices and %d fill indices",
				ErrGeometryTooLarge, fillVertices, 3*fillTriangles))
		}
	}

	b.addLines(rings, lineVertices, lineTriangles)

	if tessErr != nil {
		Logger().Error("tilebucket: tessellation failed, fill skipped", "rings", len(rings), "err", tessErr)
		return nil
	}
	b.addFill(rings, fillVertices)
	return nil
}

func (b *FillBucket) addLines(rings []clip.Path, vertices, triangles int) {
	g := b.lineGroups.reserve(vertices, triangles)
	groupStart := b.bufs.LineVertices.Index() - g.VertexCount

	var pts []r2.Point
	for _, r := range rings {
		pts = pts[:0]
		for _, p := range r {
			pts = append(pts, r2.Point{X: p.X, Y: p.Y})
		}
		appendLineJoins(pts, b.bufs.LineVertices, b.bufs.LineTriangles, groupStart)
	}

	g.VertexCount += vertices
	g.ElementCount += triangles
}

func (b *FillBucket) addFill(rings []clip.Path, vertices int) {
	verts := b.bufs.FillVertices
	for _, r := range rings {
		for _, p := range r {
			verts.Add(p.X, p.Y)
		}
	}

	// Map tessellator vertices to bucket-local indices, appending the
	// vertices it introduced after the ring points.
	coords := b.tess.Vertices()
	local := make([]int, b.tess.VertexCount())
	next := vertices - countUndef(b.tess.VertexIndices())
	for i, idx := range b.tess.VertexIndices() {
		if idx != tess.Undef {
			local[i] = idx
			continue
		}
		verts.Add(math.Round(coords[2*i]), math.Round(coords[2*i+1]))
		local[i] = next
		next++
	}

	g := b.triangleGroups.reserve(vertices, b.tess.ElementCount())
	base := g.VertexCount
	elems := b.tess.Elements()
	written := 0
	for i := 0; i+2 < len(elems); i += tess.PolySize {
		e0, e1, e2 := elems[i], elems[i+1], elems[i+2]
		if e0 == tess.Undef || e1 == tess.Undef || e2 == tess.Undef {
			b.dropped++
			Logger().Warn("tilebucket: undefined element dropped", "triangle", i/tess.PolySize)
			continue
		}
		b.bufs.FillTriangles.Add(base+local[e0], base+local[e1], base+local[e2])
		written++
	}

	g.VertexCount += vertices
	g.ElementCount += written
}

func countUndef(indices []int) int {
	n := 0
	for _, idx := range indices {
		if idx == tess.Undef {
			n++
		}
	}
	return n
}

// Upload copies the shared buffers to the GPU and marks the bucket ready
// to draw. Further calls are no-ops.
func (b *FillBucket) Upload(u Uploader) error {
	if b.failed != nil {
		return fmt.Errorf("%w: %w", ErrBucketFailed, b.failed)
	}
	if b.uploaded {
		return nil
	}
	if err := b.bufs.Upload(u); err != nil {
		return err
	}
	b.uploaded = true
	Logger().Debug("tilebucket: bucket uploaded",
		"triangleGroups", len(b.triangleGroups), "lineGroups", len(b.lineGroups))
	return nil
}

// Uploaded reports whether Upload succeeded.
func (b *FillBucket) Uploaded() bool {
	return b.uploaded
}

// HasData reports whether the bucket has anything to draw.
func (b *FillBucket) HasData() bool {
	return b.failed == nil && (len(b.triangleGroups) > 0 || len(b.lineGroups) > 0)
}

// Failed returns the error that failed the bucket, or nil.
func (b *FillBucket) Failed() error {
	return b.failed
}

// Dropped returns the number of fill triangles dropped because a corner
// had no vertex.
func (b *FillBucket) Dropped() int {
	return b.dropped
}

// TriangleGroups returns a copy of the fill draw groups.
func (b *FillBucket) TriangleGroups() []Group {
	return append([]Group(nil), b.triangleGroups...)
}

// LineGroups returns a copy of the outline draw groups.
func (b *FillBucket) LineGroups() []Group {
	return append([]Group(nil), b.lineGroups...)
}

// BaseOffsets returns the buffer positions recorded at construction, in
// records: fill vertices, fill triangles, line vertices, line triangles.
func (b *FillBucket) BaseOffsets() (fillVertex, fillTriangle, lineVertex, lineTriangle int) {
	return b.fillVertexStart, b.fillTriangleStart, b.lineVertexStart, b.lineTriangleStart
}
