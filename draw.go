package tilebucket

import (
	"fmt"

	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/tilebucket/style"
)

// ShaderKind selects the pipeline a group is drawn with.
type ShaderKind int

const (
	// ShaderPlain fills with a solid color.
	ShaderPlain ShaderKind = iota
	// ShaderPattern fills with a cross-faded image pattern.
	ShaderPattern
	// ShaderOutline draws the stroked ring mesh.
	ShaderOutline
)

// String returns the shader name.
func (k ShaderKind) String() string {
	switch k {
	case ShaderPlain:
		return "plain"
	case ShaderPattern:
		return "pattern"
	case ShaderOutline:
		return "outline"
	default:
		return fmt.Sprintf("ShaderKind(%d)", int(k))
	}
}

// DrawPass receives the draw calls of a bucket. Offsets are in bytes.
// Indices are uint16.
type DrawPass interface {
	SetShader(kind ShaderKind)
	SetVertexBuffer(buf GPUBuffer, offset uint64)
	SetIndexBuffer(buf GPUBuffer, offset uint64)
	DrawIndexed(indexCount uint32)
}

// MatrixSetter is implemented by passes that accept a tile transform.
type MatrixSetter interface {
	SetMatrix(m Mat4)
}

// PatternSetter is implemented by passes that accept a faded pattern.
type PatternSetter interface {
	SetPattern(p style.Faded[string])
}

// TileID identifies a tile.
type TileID = maptile.Tile

// Mat4 is a column-major 4x4 transform.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// StyleLayer describes how a fill layer is painted.
type StyleLayer struct {
	ID          string
	SourceLayer string
	Color       [4]float32
	Opacity     float64
	// Pattern, when set, switches the fill to the pattern shader.
	Pattern *style.PiecewiseConstantFunction[string]
	// Outline enables drawing the stroked ring mesh.
	Outline bool
}

// FillPainter issues the draw calls of a fill bucket.
type FillPainter interface {
	RenderFill(b *FillBucket, layer *StyleLayer, id TileID, m Mat4)
}

// Render delegates to p.
func (b *FillBucket) Render(p FillPainter, layer *StyleLayer, id TileID, m Mat4) {
	p.RenderFill(b, layer, id, m)
}

// DrawElements draws the fill triangle groups and returns the number of
// draw calls issued.
func (b *FillBucket) DrawElements(pass DrawPass, shader ShaderKind) (int, error) {
	return b.draw(pass, shader, b.triangleGroups,
		b.bufs.FillVertices, b.bufs.FillTriangles, b.fillVertexStart, b.fillTriangleStart)
}

// DrawVertices draws the outline groups and returns the number of draw
// calls issued.
func (b *FillBucket) DrawVertices(pass DrawPass, shader ShaderKind) (int, error) {
	return b.draw(pass, shader, b.lineGroups,
		b.bufs.LineVertices, b.bufs.LineTriangles, b.lineVertexStart, b.lineTriangleStart)
}

func (b *FillBucket) draw(pass DrawPass, shader ShaderKind, groups groupList,
	verts *VertexBuffer, elems *ElementsBuffer, vertexStart, elementStart int) (int, error) {
	if b.failed != nil {
		return 0, fmt.Errorf("%w: %w", ErrBucketFailed, b.failed)
	}
	if !b.uploaded {
		return 0, ErrNotUploaded
	}
	if len(groups) == 0 {
		return 0, nil
	}

	pass.SetShader(shader)
	vertexOffset := vertexStart * verts.ItemSize()
	elementOffset := elementStart * elems.ItemSize()
	draws := 0
	for i, g := range groups {
		vertexEnd := vertexOffset + g.VertexCount*verts.ItemSize()
		elementEnd := elementOffset + g.ElementCount*elems.ItemSize()
		switch {
		case g.ElementCount == 0:
		case elementEnd > elems.UploadedSize() || vertexEnd > verts.UploadedSize() ||
			g.VertexCount > MaxGroupVertices:
			Logger().Warn("tilebucket: draw group out of range, skipped",
				"shader", shader, "group", i,
				"elementEnd", elementEnd, "elementBytes", elems.UploadedSize(),
				"vertexEnd", vertexEnd, "vertexBytes", verts.UploadedSize())
		default:
			pass.SetVertexBuffer(verts.Handle(), uint64(vertexOffset))
			pass.SetIndexBuffer(elems.Handle(), uint64(elementOffset))
			pass.DrawIndexed(uint32(g.IndexCount()))
			draws++
		}
		vertexOffset = vertexEnd
		elementOffset = elementEnd
	}
	return draws, nil
}

// Painter is a FillPainter drawing into a single pass. Pattern layers are
// evaluated against the parameters of the current frame.
type Painter struct {
	pass   DrawPass
	params style.CalculationParameters
	draws  int
	errs   int
}

// NewPainter creates a painter drawing into pass.
func NewPainter(pass DrawPass) *Painter {
	return &Painter{pass: pass}
}

// SetParameters sets the style parameters of the frame being drawn.
func (p *Painter) SetParameters(params style.CalculationParameters) {
	p.params = params
}

// RenderFill implements FillPainter.
func (p *Painter) RenderFill(b *FillBucket, layer *StyleLayer, id TileID, m Mat4) {
	if !b.HasData() {
		return
	}
	if ms, ok := p.pass.(MatrixSetter); ok {
		ms.SetMatrix(m)
	}

	shader := ShaderPlain
	if layer.Pattern != nil {
		faded := layer.Pattern.Evaluate(p.params)
		if ps, ok := p.pass.(PatternSetter); ok {
			ps.SetPattern(faded)
		}
		shader = ShaderPattern
	}
	n, err := b.DrawElements(p.pass, shader)
	p.record(n, err, layer, id)

	if layer.Outline {
		n, err = b.DrawVertices(p.pass, ShaderOutline)
		p.record(n, err, layer, id)
	}
}

func (p *Painter) record(n int, err error, layer *StyleLayer, id TileID) {
	p.draws += n
	if err != nil {
		p.errs++
		Logger().Warn("tilebucket: fill draw failed",
			"layer", layer.ID, "z", id.Z, "x", id.X, "y", id.Y, "err", err)
	}
}

// Draws returns the number of draw calls issued so far.
func (p *Painter) Draws() int {
	return p.draws
}

// Errors returns the number of buckets that could not be drawn.
func (p *Painter) Errors() int {
	return p.errs
}
