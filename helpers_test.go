package tilebucket

import (
	"errors"
	"fmt"
	"testing"
)

// fakeBuffer is the GPUBuffer returned by fakeUploader.
type fakeBuffer struct {
	usage BufferUsage
	label string
	size  int
}

type fakeUploader struct {
	uploads []*fakeBuffer
	err     error
}

func (u *fakeUploader) Upload(usage BufferUsage, label string, data []byte) (GPUBuffer, error) {
	if u.err != nil {
		return nil, u.err
	}
	b := &fakeBuffer{usage: usage, label: label, size: len(data)}
	u.uploads = append(u.uploads, b)
	return b, nil
}

type drawCall struct {
	shader       ShaderKind
	vertexBuf    GPUBuffer
	vertexOffset uint64
	indexBuf     GPUBuffer
	indexOffset  uint64
	indexCount   uint32
}

// recordingPass records every call it receives.
type recordingPass struct {
	shader ShaderKind
	vb, ib GPUBuffer
	vOff   uint64
	iOff   uint64

	shaders []ShaderKind
	calls   []drawCall
	matrix  *Mat4
}

func (p *recordingPass) SetShader(k ShaderKind) {
	p.shader = k
	p.shaders = append(p.shaders, k)
}

func (p *recordingPass) SetVertexBuffer(buf GPUBuffer, offset uint64) {
	p.vb, p.vOff = buf, offset
}

func (p *recordingPass) SetIndexBuffer(buf GPUBuffer, offset uint64) {
	p.ib, p.iOff = buf, offset
}

func (p *recordingPass) DrawIndexed(n uint32) {
	p.calls = append(p.calls, drawCall{
		shader:       p.shader,
		vertexBuf:    p.vb,
		vertexOffset: p.vOff,
		indexBuf:     p.ib,
		indexOffset:  p.iOff,
		indexCount:   n,
	})
}

func (p *recordingPass) SetMatrix(m Mat4) {
	p.matrix = &m
}

func square(x, y, size float64) Ring {
	return Ring{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}}
}

// squares returns n disjoint 10x10 squares laid out on a grid.
func squares(n int) GeometryCollection {
	g := make(GeometryCollection, 0, n)
	for i := range n {
		g = append(g, square(float64(i%40)*20, float64(i/40)*20, 10))
	}
	return g
}

// mustAdd adds g to b and fails the test on error.
func mustAdd(t *testing.T, b *FillBucket, g GeometryCollection) {
	t.Helper()
	if err := b.AddGeometry(g); err != nil {
		t.Fatalf("AddGeometry: %v", err)
	}
}

// fillArea sums the area of every fill triangle the bucket wrote, resolving
// indices against the bucket's triangle groups.
func fillArea(t *testing.T, b *FillBucket) float64 {
	t.Helper()
	vbase, ebase, _, _ := b.BaseOffsets()
	var sum float64
	for _, g := range b.TriangleGroups() {
		for i := 0; i < g.ElementCount; i++ {
			tri := b.bufs.FillTriangles.At(ebase + i)
			var xs, ys [3]float64
			for k, idx := range tri {
				if int(idx) >= g.VertexCount {
					t.Fatalf("index %d outside group of %d vertices", idx, g.VertexCount)
				}
				x, y := b.bufs.FillVertices.At(vbase + int(idx))
				xs[k], ys[k] = float64(x), float64(y)
			}
			a := ((xs[1]-xs[0])*(ys[2]-ys[0]) - (xs[2]-xs[0])*(ys[1]-ys[0])) / 2
			if a < 0 {
				a = -a
			}
			sum += a
		}
		vbase += g.VertexCount
		ebase += g.ElementCount
	}
	return sum
}

var errUpload = errors.New("upload failed")

func groupsString(gs []Group) string {
	return fmt.Sprint(gs)
}
