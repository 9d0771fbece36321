package tilebucket

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// VertexItemSize is the byte size of one vertex record (two int16).
	VertexItemSize = 4

	// TriangleItemSize is the byte size of one triangle record (three uint16).
	TriangleItemSize = 6
)

// BufferUsage tells an Uploader how a buffer will be bound.
type BufferUsage int

const (
	UsageVertex BufferUsage = iota
	UsageIndex
)

// String returns the usage name.
func (u BufferUsage) String() string {
	switch u {
	case UsageVertex:
		return "vertex"
	case UsageIndex:
		return "index"
	default:
		return fmt.Sprintf("BufferUsage(%d)", int(u))
	}
}

// GPUBuffer is an opaque handle returned by an Uploader and passed back to
// a DrawPass.
type GPUBuffer any

// Uploader copies CPU buffer contents into GPU-resident storage.
type Uploader interface {
	Upload(usage BufferUsage, label string, data []byte) (GPUBuffer, error)
}

// gpuState tracks the uploaded copy of a buffer.
type gpuState struct {
	handle GPUBuffer
	size   int
	done   bool
}

func (s *gpuState) upload(u Uploader, usage BufferUsage, label string, data []byte) error {
	if s.done {
		return nil
	}
	if len(data) > 0 {
		h, err := u.Upload(usage, label, data)
		if err != nil {
			return fmt.Errorf("tilebucket: upload %s: %w", label, err)
		}
		s.handle = h
		s.size = len(data)
	}
	s.done = true
	return nil
}

// VertexBuffer is an append-only array of int16 x/y vertex records.
type VertexBuffer struct {
	label string
	data  []int16
	gpu   gpuState
}

// NewVertexBuffer creates an empty vertex buffer.
func NewVertexBuffer(label string) *VertexBuffer {
	return &VertexBuffer{label: label}
}

func toInt16(v float64) int16 {
	v = math.Round(v)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	case math.IsNaN(v):
		return 0
	}
	return int16(v)
}

// Add appends one vertex, rounding and clamping each coordinate to int16.
// Adding after upload panics.
func (b *VertexBuffer) Add(x, y float64) {
	if b.gpu.done {
		panic("tilebucket: VertexBuffer.Add after upload")
	}
	b.data = append(b.data, toInt16(x), toInt16(y))
}

// Index returns the number of vertices added so far.
func (b *VertexBuffer) Index() int {
	return len(b.data) / 2
}

// At returns vertex i.
func (b *VertexBuffer) At(i int) (x, y int16) {
	return b.data[2*i], b.data[2*i+1]
}

// ItemSize returns VertexItemSize.
func (b *VertexBuffer) ItemSize() int {
	return VertexItemSize
}

// Bytes returns the little-endian encoding of all records.
func (b *VertexBuffer) Bytes() []byte {
	out := make([]byte, 0, len(b.data)*2)
	for _, v := range b.data {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

// Upload copies the buffer to the GPU once. Empty buffers are marked
// uploaded without creating a GPU buffer.
func (b *VertexBuffer) Upload(u Uploader) error {
	return b.gpu.upload(u, UsageVertex, b.label, b.Bytes())
}

// Uploaded reports whether Upload has completed.
func (b *VertexBuffer) Uploaded() bool { return b.gpu.done }

// Handle returns the GPU buffer, or nil before upload or for empty buffers.
func (b *VertexBuffer) Handle() GPUBuffer { return b.gpu.handle }

// UploadedSize returns the uploaded byte length.
func (b *VertexBuffer) UploadedSize() int { return b.gpu.size }

// ElementsBuffer is an append-only array of uint16 triangle records.
type ElementsBuffer struct {
	label string
	data  []uint16
	gpu   gpuState
}

// NewElementsBuffer creates an empty triangle elements buffer.
func NewElementsBuffer(label string) *ElementsBuffer {
	return &ElementsBuffer{label: label}
}

// Add appends one triangle. Indices outside [0, 65535] are a programming
// error and panic, as does adding after upload.
func (b *ElementsBuffer) Add(a, c, d int) {
	if b.gpu.done {
		panic("tilebucket: ElementsBuffer.Add after upload")
	}
	for _, v := range [...]int{a, c, d} {
		if v < 0 || v > math.MaxUint16 {
			panic(fmt.Sprintf("tilebucket: element index %d out of 16-bit range", v))
		}
	}
	b.data = append(b.data, uint16(a), uint16(c), uint16(d))
}

// Index returns the number of triangles added so far.
func (b *ElementsBuffer) Index() int {
	return len(b.data) / 3
}

// At returns triangle i.
func (b *ElementsBuffer) At(i int) [3]uint16 {
	return [3]uint16{b.data[3*i], b.data[3*i+1], b.data[3*i+2]}
}

// ItemSize returns TriangleItemSize.
func (b *ElementsBuffer) ItemSize() int {
	return TriangleItemSize
}

// Bytes returns the little-endian encoding of all records.
func (b *ElementsBuffer) Bytes() []byte {
	out := make([]byte, 0, len(b.data)*2)
	for _, v := range b.data {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out
}

// Upload copies the buffer to the GPU once.
func (b *ElementsBuffer) Upload(u Uploader) error {
	return b.gpu.upload(u, UsageIndex, b.label, b.Bytes())
}

// Uploaded reports whether Upload has completed.
func (b *ElementsBuffer) Uploaded() bool { return b.gpu.done }

// Handle returns the GPU buffer, or nil before upload or for empty buffers.
func (b *ElementsBuffer) Handle() GPUBuffer { return b.gpu.handle }

// UploadedSize returns the uploaded byte length.
func (b *ElementsBuffer) UploadedSize() int { return b.gpu.size }

// Buffers is the per-tile set of shared buffers lent to fill buckets.
// Every bucket built against one Buffers appends to the same arrays at
// offsets recorded when the bucket is created.
type Buffers struct {
	FillVertices  *VertexBuffer
	FillTriangles *ElementsBuffer
	LineVertices  *VertexBuffer
	LineTriangles *ElementsBuffer
}

// NewBuffers creates an empty buffer set.
func NewBuffers() *Buffers {
	return &Buffers{
		FillVertices:  NewVertexBuffer("fill vertices"),
		FillTriangles: NewElementsBuffer("fill triangles"),
		LineVertices:  NewVertexBuffer("line vertices"),
		LineTriangles: NewElementsBuffer("line triangles"),
	}
}

// Upload uploads every buffer that has not been uploaded yet.
func (b *Buffers) Upload(u Uploader) error {
	if u == nil {
		return ErrNilUploader
	}
	if err := b.FillVertices.Upload(u); err != nil {
		return err
	}
	if err := b.FillTriangles.Upload(u); err != nil {
		return err
	}
	if err := b.LineVertices.Upload(u); err != nil {
		return err
	}
	return b.LineTriangles.Upload(u)
}

// sealed reports whether any buffer has been uploaded and so accepts no
// more records.
func (b *Buffers) sealed() bool {
	return b.FillVertices.Uploaded() || b.FillTriangles.Uploaded() ||
		b.LineVertices.Uploaded() || b.LineTriangles.Uploaded()
}

// Uploaded reports whether all buffers are uploaded.
func (b *Buffers) Uploaded() bool {
	return b.FillVertices.Uploaded() && b.FillTriangles.Uploaded() &&
		b.LineVertices.Uploaded() && b.LineTriangles.Uploaded()
}
