package style

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const fade = 300 * time.Millisecond

func abc() *PiecewiseConstantFunction[string] {
	return NewPiecewiseConstantFunction([]Stop[string]{
		StopAt(10, "C"),
		StopAt(0, "A"),
		StopAt(5, "B"),
	})
}

// params builds a snapshot at zoom z whose last integer crossing was at
// lastInt, progress t into the default fade.
func params(z, lastInt, t float64) CalculationParameters {
	return CalculationParameters{
		Z:   z,
		Now: base.Add(time.Duration(t * float64(fade))),
		ZoomHistory: ZoomHistory{
			LastZoom:            z,
			LastIntegerZoom:     lastInt,
			LastIntegerZoomTime: base,
		},
		DefaultFadeDuration: fade,
	}
}

func TestStopFloor(t *testing.T) {
	stops := abc().Stops
	tests := []struct {
		z    float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{4.99, 0},
		{5, 1},
		{7, 1},
		{8, 1},
		{10, 2},
		{22, 2},
	}
	for _, tt := range tests {
		if got := StopFloor(stops, tt.z); got != tt.want {
			t.Errorf("StopFloor(%v) = %d, want %d", tt.z, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	f := abc()
	tests := []struct {
		name string
		p    CalculationParameters
		want Faded[string]
	}{
		{
			name: "stable mid fade",
			p:    params(7, 7, 0.5),
			want: Faded[string]{From: "B", To: "B", FromScale: 0.5, ToScale: 1, T: 1},
		},
		{
			name: "zoom in start of fade",
			p:    params(5.5, 5, 0),
			want: Faded[string]{From: "A", To: "B", FromScale: 2, ToScale: 1, T: 0.5},
		},
		{
			name: "zoom in fade complete",
			p:    params(5.5, 5, 1),
			want: Faded[string]{From: "A", To: "B", FromScale: 2, ToScale: 1, T: 1},
		},
		{
			name: "zoom in past end clamps",
			p:    params(5.5, 5, 3),
			want: Faded[string]{From: "A", To: "B", FromScale: 2, ToScale: 1, T: 1},
		},
		{
			name: "zoom out start of fade at integer",
			p:    params(4, 5, 0),
			want: Faded[string]{From: "B", To: "A", FromScale: 0.5, ToScale: 1, T: 1},
		},
		{
			name: "zoom out mid fade",
			p:    params(4.5, 5, 0.5),
			want: Faded[string]{From: "B", To: "A", FromScale: 0.5, ToScale: 1, T: 0.75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Evaluate(tt.p)
			if d := cmp.Diff(tt.want, got, cmp.Comparer(approx)); d != "" {
				t.Errorf("Evaluate mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_ZoomInStartsAtFraction(t *testing.T) {
	f := abc()
	for _, z := range []float64{3.25, 6.5, 9.75} {
		got := f.Evaluate(params(z, math.Floor(z)-1, 0))
		if want := z - math.Floor(z); !approx(got.T, want) {
			t.Errorf("z=%v: T = %v, want fraction %v", z, got.T, want)
		}
	}
}

func TestEvaluate_DurationOverride(t *testing.T) {
	f := abc()
	zero := time.Duration(0)
	f.Duration = &zero

	got := f.Evaluate(params(5.5, 5, 0))
	if got.T != 1 {
		t.Errorf("T with zero duration = %v, want 1", got.T)
	}

	long := 10 * fade
	f.Duration = &long
	got = f.Evaluate(params(5.5, 5, 5))
	if !approx(got.T, 0.75) {
		t.Errorf("T with long duration = %v, want 0.75", got.T)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	var f PiecewiseConstantFunction[[]float64]
	got := f.Evaluate(params(3, 3, 1))
	if got.From != nil || got.To != nil || got.T != 0 {
		t.Errorf("empty Evaluate = %+v, want zero", got)
	}
}

func TestEvaluate_DashArrays(t *testing.T) {
	f := NewPiecewiseConstantFunction([]Stop[[]float64]{
		StopAt(0, []float64{1, 1}),
		StopAt(12, []float64{2, 4}),
	})
	got := f.Evaluate(params(12.5, 12, 0))
	if d := cmp.Diff(Faded[[]float64]{From: []float64{1, 1}, To: []float64{2, 4}, FromScale: 2, ToScale: 1, T: 0.5}, got); d != "" {
		t.Errorf("mismatch (-want +got):\n%s", d)
	}
}

func TestZoomHistory_Update(t *testing.T) {
	var h ZoomHistory
	if !h.Update(4.5, base) {
		t.Fatal("first Update should report a change")
	}
	if h.LastIntegerZoom != 4 || !h.LastIntegerZoomTime.IsZero() {
		t.Errorf("seeded = (%v, %v), want (4, zero time)", h.LastIntegerZoom, h.LastIntegerZoomTime)
	}

	if h.Update(4.5, base.Add(time.Second)) {
		t.Error("Update with same zoom should report no change")
	}

	up := base.Add(2 * time.Second)
	if !h.Update(5.2, up) {
		t.Error("Update with new zoom should report a change")
	}
	if h.LastIntegerZoom != 5 || !h.LastIntegerZoomTime.Equal(up) {
		t.Errorf("after zoom in = (%v, %v), want (5, %v)", h.LastIntegerZoom, h.LastIntegerZoomTime, up)
	}

	h.Update(5.9, base.Add(3*time.Second))
	if !h.LastIntegerZoomTime.Equal(up) {
		t.Error("moving within a zoom level should not restart the fade")
	}

	down := base.Add(4 * time.Second)
	h.Update(3.7, down)
	if h.LastIntegerZoom != 4 || !h.LastIntegerZoomTime.Equal(down) {
		t.Errorf("after zoom out = (%v, %v), want (4, %v)", h.LastIntegerZoom, h.LastIntegerZoomTime, down)
	}
}

func TestZoomHistory_SeededFadeIsComplete(t *testing.T) {
	var h ZoomHistory
	h.Update(6, base)
	p := CalculationParameters{Z: 6, Now: base, ZoomHistory: h, DefaultFadeDuration: fade}
	if got := p.fadeProgress(fade); got != 1 {
		t.Errorf("fadeProgress after seeding = %v, want 1", got)
	}
}

func TestParseStops(t *testing.T) {
	stops, err := ParseStops[string]([]byte(`{"stops": [[10, "c"], [0, "a"], [5, "b"]]}`))
	if err != nil {
		t.Fatal(err)
	}
	want := []Stop[string]{StopAt(0, "a"), StopAt(5, "b"), StopAt(10, "c")}
	if d := cmp.Diff(want, stops); d != "" {
		t.Errorf("ParseStops mismatch (-want +got):\n%s", d)
	}

	dashes, err := ParseStops[[]float64]([]byte(`{"stops": [[0, [1, 2]], [14, [3, 1]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(dashes) != 2 || dashes[1].Value.To[0] != 3 {
		t.Errorf("dash stops = %+v", dashes)
	}

	constant, err := ParseStops[string]([]byte(` "stripes" `))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]Stop[string]{StopAt(0, "stripes")}, constant); d != "" {
		t.Errorf("constant mismatch (-want +got):\n%s", d)
	}
}

func TestParseStops_Errors(t *testing.T) {
	for _, in := range []string{
		`{"stops": []}`,
		`{"stops": [[1]]}`,
		`{"stops": [["x", "a"]]}`,
		`{"stops": [[1, 2]]}`,
		`{}`,
		`not json`,
	} {
		if _, err := ParseStops[string]([]byte(in)); !errors.Is(err, ErrInvalidStops) {
			t.Errorf("ParseStops(%s) error = %v, want ErrInvalidStops", in, err)
		}
	}
}

func TestUnmarshalJSON_Duration(t *testing.T) {
	var f PiecewiseConstantFunction[string]
	if err := f.UnmarshalJSON([]byte(`{"stops": [[0, "a"]], "duration": 150}`)); err != nil {
		t.Fatal(err)
	}
	if f.Duration == nil || *f.Duration != 150*time.Millisecond {
		t.Errorf("Duration = %v, want 150ms", f.Duration)
	}
}
