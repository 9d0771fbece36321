// Package style evaluates zoom-dependent style values that cross-fade
// between discrete representations, such as fill patterns or dash arrays,
// when the map crosses an integer zoom level.
package style

import (
	"math"
	"time"
)

// Faded is a pair of representations blended by T. From is drawn at
// FromScale and To at ToScale.
type Faded[T any] struct {
	From      T
	To        T
	FromScale float64
	ToScale   float64
	T         float64
}

// Stop is a zoom threshold and the faded value that applies from it.
type Stop[T any] struct {
	Zoom  float64
	Value Faded[T]
}

// StopAt returns a stop whose value fades to v.
func StopAt[T any](zoom float64, v T) Stop[T] {
	return Stop[T]{
		Zoom:  zoom,
		Value: Faded[T]{From: v, To: v, FromScale: 1, ToScale: 1, T: 1},
	}
}

// ZoomHistory remembers the last integer zoom level the map crossed and
// when. The zero value is ready to use.
type ZoomHistory struct {
	LastZoom            float64
	LastIntegerZoom     float64
	LastIntegerZoomTime time.Time

	seeded bool
}

// Update records zoom z at time now and reports whether z changed. The
// first call seeds the history with a zero crossing time so that no fade
// is in progress.
func (h *ZoomHistory) Update(z float64, now time.Time) bool {
	if !h.seeded {
		h.seeded = true
		h.LastIntegerZoom = math.Floor(z)
		h.LastIntegerZoomTime = time.Time{}
		h.LastZoom = z
		return true
	}

	switch last, cur := math.Floor(h.LastZoom), math.Floor(z); {
	case last < cur:
		h.LastIntegerZoom = cur
		h.LastIntegerZoomTime = now
	case last > cur:
		h.LastIntegerZoom = cur + 1
		h.LastIntegerZoomTime = now
	}

	if z != h.LastZoom {
		h.LastZoom = z
		return true
	}
	return false
}

// CalculationParameters is the per-frame snapshot style values are
// evaluated against.
type CalculationParameters struct {
	Z                   float64
	Now                 time.Time
	ZoomHistory         ZoomHistory
	DefaultFadeDuration time.Duration
}

// fadeProgress returns how far the fade since the last integer zoom
// crossing has progressed, in [0, 1]. A non-positive duration means the
// fade is complete.
func (p CalculationParameters) fadeProgress(d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	t := float64(p.Now.Sub(p.ZoomHistory.LastIntegerZoomTime)) / float64(d)
	return min(max(t, 0), 1)
}
