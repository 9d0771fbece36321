package style

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrInvalidStops is returned when a stop list cannot be decoded.
var ErrInvalidStops = errors.New("style: invalid stops")

// PiecewiseConstantFunction maps zoom to the value of the greatest stop not
// above it and cross-fades between neighbouring stops across integer zoom
// crossings.
type PiecewiseConstantFunction[T any] struct {
	// Stops are ordered by ascending zoom.
	Stops []Stop[T]
	// Duration overrides the default fade duration when set.
	Duration *time.Duration
}

// NewPiecewiseConstantFunction returns a function over stops, sorted by zoom.
func NewPiecewiseConstantFunction[T any](stops []Stop[T]) *PiecewiseConstantFunction[T] {
	s := append([]Stop[T](nil), stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Zoom < s[j].Zoom })
	return &PiecewiseConstantFunction[T]{Stops: s}
}

// Constant returns a function with a single stop at zoom 0.
func Constant[T any](v T) *PiecewiseConstantFunction[T] {
	return &PiecewiseConstantFunction[T]{Stops: []Stop[T]{StopAt(0, v)}}
}

// StopFloor returns the index of the greatest stop whose zoom is not above
// z. It returns 0 when z lies below every stop and the last index when no
// stop lies above z. stops must be non-empty and sorted.
func StopFloor[T any](stops []Stop[T], z float64) int {
	for i, s := range stops {
		if s.Zoom > z {
			if i == 0 {
				return 0
			}
			return i - 1
		}
	}
	return len(stops) - 1
}

// Evaluate returns the faded value at p.Z.
//
// When the map zoomed in past the last integer zoom, From is the value one
// zoom level down drawn at double scale. Otherwise From is the value one
// zoom level up drawn at half scale. T starts at the zoom fraction (in) or
// 1 (out) and progresses as the fade runs. An empty function evaluates to
// the zero Faded.
func (f *PiecewiseConstantFunction[T]) Evaluate(p CalculationParameters) Faded[T] {
	if len(f.Stops) == 0 {
		return Faded[T]{}
	}

	d := p.DefaultFadeDuration
	if f.Duration != nil {
		d = *f.Duration
	}
	z := p.Z
	fraction := math.Mod(z, 1)
	t := p.fadeProgress(d)

	var out Faded[T]
	var from, to int
	if z > p.ZoomHistory.LastIntegerZoom {
		out.T = fraction + (1-fraction)*t
		from = StopFloor(f.Stops, z-1)
		to = StopFloor(f.Stops, z)
		out.FromScale = 2
	} else {
		out.T = 1 - (1-t)*fraction
		to = StopFloor(f.Stops, z)
		from = StopFloor(f.Stops, z+1)
		out.FromScale = 0.5
	}
	out.ToScale = 1
	out.From = f.Stops[from].Value.To
	out.To = f.Stops[to].Value.To
	return out
}

// UnmarshalJSON decodes either {"stops": [[zoom, value], ...]} with an
// optional "duration" in milliseconds, or a bare value used at every zoom.
func (f *PiecewiseConstantFunction[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Stops    []json.RawMessage `json:"stops"`
			Duration *float64          `json:"duration"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidStops, err)
		}
		if obj.Stops != nil {
			stops, err := decodeStops[T](obj.Stops)
			if err != nil {
				return err
			}
			*f = *NewPiecewiseConstantFunction(stops)
			if obj.Duration != nil {
				d := time.Duration(*obj.Duration * float64(time.Millisecond))
				f.Duration = &d
			}
			return nil
		}
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStops, err)
	}
	*f = *Constant(v)
	return nil
}

// ParseStops decodes a JSON stop function and returns its stops sorted
// by zoom.
func ParseStops[T any](data []byte) ([]Stop[T], error) {
	var f PiecewiseConstantFunction[T]
	if err := f.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return f.Stops, nil
}

func decodeStops[T any](raw []json.RawMessage) ([]Stop[T], error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty stop list", ErrInvalidStops)
	}
	stops := make([]Stop[T], 0, len(raw))
	for i, r := range raw {
		var pair []json.RawMessage
		if err := json.Unmarshal(r, &pair); err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("%w: stop %d is not a [zoom, value] pair", ErrInvalidStops, i)
		}
		var zoom float64
		if err := json.Unmarshal(pair[0], &zoom); err != nil {
			return nil, fmt.Errorf("%w: stop %d zoom: %w", ErrInvalidStops, i, err)
		}
		var v T
		if err := json.Unmarshal(pair[1], &v); err != nil {
			return nil, fmt.Errorf("%w: stop %d value: %w", ErrInvalidStops, i, err)
		}
		stops = append(stops, StopAt(zoom, v))
	}
	return stops, nil
}
