package tilebucket

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/tilebucket/internal/tess"
)

// countingAllocator counts the requests served from the heap.
type countingAllocator struct {
	tess.HeapAllocator
	requests int
	resets   int
}

func (a *countingAllocator) Floats(n int) []float64 {
	a.requests++
	return a.HeapAllocator.Floats(n)
}

func (a *countingAllocator) Ints(n int) []int {
	a.requests++
	return a.HeapAllocator.Ints(n)
}

func (a *countingAllocator) Reset() { a.resets++ }

func TestDefaultBucketOptions(t *testing.T) {
	o := defaultBucketOptions()
	if d := cmp.Diff(DefaultAllocHints(), o.hints); d != "" {
		t.Errorf("hints (-want +got):\n%s", d)
	}
	if o.alloc != nil {
		t.Errorf("alloc = %v, want nil", o.alloc)
	}
}

func TestWithAllocHints(t *testing.T) {
	h := DefaultAllocHints()
	h.ExtraVertices = 1024

	o := defaultBucketOptions()
	WithAllocHints(h)(&o)
	if o.hints.ExtraVertices != 1024 {
		t.Errorf("ExtraVertices = %d, want 1024", o.hints.ExtraVertices)
	}

	b := NewFillBucket(NewBuffers(), WithAllocHints(h))
	mustAdd(t, b, GeometryCollection{square(0, 0, 10)})
	if got := fillArea(t, b); got != 100 {
		t.Errorf("fill area = %v, want 100", got)
	}
}

func TestWithAllocator(t *testing.T) {
	alloc := &countingAllocator{}
	b := NewFillBucket(NewBuffers(), WithAllocator(alloc))
	mustAdd(t, b, GeometryCollection{square(0, 0, 10)})
	mustAdd(t, b, GeometryCollection{square(20, 20, 10)})

	if alloc.requests == 0 {
		t.Error("tessellator never used the injected allocator")
	}
	if alloc.resets == 0 {
		t.Error("allocator was never reset between features")
	}
	if got := fillArea(t, b); got != 200 {
		t.Errorf("fill area = %v, want 200", got)
	}
}
