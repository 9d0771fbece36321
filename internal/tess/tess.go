// Package tess triangulates sets of contours under a winding rule.
//
// Contours must be simple and must not cross each other, as produced by
// the clip package. The winding rule decides which contours are outer rings
// and which are holes; each outer ring is then ear-clipped together with
// its holes. The output follows the
// layout of a polygon tessellator: a flat vertex array, the input index of
// every output vertex, and a flat element array of triangles.
package tess

import (
	"errors"
	"fmt"

	"github.com/rclancey/earcut"

	"github.com/gogpu/tilebucket/internal/clip"
)

// Undef marks an output vertex that does not correspond to any input
// vertex, or an element corner with no vertex.
const Undef = -1

// VertexSize is the number of coordinates per output vertex.
const VertexSize = 2

// PolySize is the number of element slots per output polygon.
const PolySize = 3

// WindingRule selects which regions of the contours are filled.
type WindingRule int

const (
	WindingRuleOdd WindingRule = iota
	WindingRuleNonzero
)

// ErrTriangulation is returned when a resolved polygon cannot be
// triangulated.
var ErrTriangulation = errors.New("tess: triangulation failed")

func (r WindingRule) fillRule() clip.FillRule {
	if r == WindingRuleNonzero {
		return clip.NonZero
	}
	return clip.EvenOdd
}

// Tessellator accumulates contours and triangulates them.
// A Tessellator is not safe for concurrent use.
type Tessellator struct {
	alloc    Allocator
	contours []clip.Path
	inputs   int

	vertices      []float64
	vertexIndices []int
	elements      []int
}

// New creates a tessellator drawing its memory from alloc. A nil alloc
// uses an Arena sized from DefaultAllocHints.
func New(alloc Allocator) *Tessellator {
	if alloc == nil {
		alloc = NewArena(DefaultAllocHints())
	}
	return &Tessellator{alloc: alloc}
}

// AddContour appends a closed contour. Input vertices are numbered in the
// order they are added across all contours.
func (t *Tessellator) AddContour(pts []clip.Point) {
	t.contours = append(t.contours, append(clip.Path(nil), pts...))
	t.inputs += len(pts)
}

// Tessellate triangulates the accumulated contours and clears them. On
// success the results are available until the next call.
func (t *Tessellator) Tessellate(rule WindingRule) error {
	contours := t.contours
	t.contours = nil
	t.inputs = 0
	t.alloc.Reset()
	t.vertices, t.vertexIndices, t.elements = nil, nil, nil

	if len(contours) == 0 {
		return nil
	}

	inputIndex := make(map[clip.Point]int)
	next := 0
	for _, c := range contours {
		for _, p := range c {
			if _, ok := inputIndex[p]; !ok {
				inputIndex[p] = next
			}
			next++
		}
	}

	polys := clip.Nest(contours, rule.fillRule())
	total := 0
	for _, p := range polys {
		for _, r := range p.Rings() {
			total += len(r)
		}
	}
	if total == 0 {
		return nil
	}

	vertices := t.alloc.Floats(total * VertexSize)
	vertexIndices := t.alloc.Ints(total)
	var tris []int

	base := 0
	for _, p := range polys {
		rings := p.Rings()
		n := 0
		for _, r := range rings {
			n += len(r)
		}
		coords := vertices[base*VertexSize : (base+n)*VertexSize]
		holes := t.alloc.Ints(len(rings) - 1)

		k := 0
		for ri, r := range rings {
			if ri > 0 {
				holes[ri-1] = k
			}
			for _, pt := range r {
				coords[k*VertexSize] = pt.X
				coords[k*VertexSize+1] = pt.Y
				if idx, ok := inputIndex[pt]; ok {
					vertexIndices[base+k] = idx
				} else {
					vertexIndices[base+k] = Undef
				}
				k++
			}
		}

		idx, err := earcut.Earcut(coords, holes, VertexSize)
		if err != nil {
			return fmt.Errorf("%w: %d vertices, %d holes: %v", ErrTriangulation, n, len(holes), err)
		}
		for _, i := range idx {
			tris = append(tris, base+i)
		}
		base += n
	}

	t.vertices = vertices
	t.vertexIndices = vertexIndices
	t.elements = t.alloc.Ints(len(tris))
	copy(t.elements, tris)
	return nil
}

// Vertices returns the output vertices as x/y pairs.
func (t *Tessellator) Vertices() []float64 {
	return t.vertices
}

// VertexCount returns the number of output vertices.
func (t *Tessellator) VertexCount() int {
	return len(t.vertices) / VertexSize
}

// VertexIndices returns, for each output vertex, the index of the input
// vertex it came from, or Undef for vertices introduced by the tessellator.
func (t *Tessellator) VertexIndices() []int {
	return t.vertexIndices
}

// Elements returns PolySize output vertex indices per triangle.
func (t *Tessellator) Elements() []int {
	return t.elements
}

// ElementCount returns the number of triangles.
func (t *Tessellator) ElementCount() int {
	return len(t.elements) / PolySize
}

// Reset drops pending contours and results.
func (t *Tessellator) Reset() {
	t.contours = nil
	t.inputs = 0
	t.vertices, t.vertexIndices, t.elements = nil, nil, nil
	t.alloc.Reset()
}

// Pending returns the number of input vertices added since the last
// Tessellate or Reset.
func (t *Tessellator) Pending() int {
	return t.inputs
}
