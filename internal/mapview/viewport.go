package mapview

import (
	"sync"

	"pulsenet-client/internal/models"

	"github.com/paulmach/orb"
)

// FitPadding is the padding, in pixels on each axis, applied when fitting a route.
const FitPadding = 60

// Viewport is the map's bounds-fitting capability.
type Viewport interface {
	FitBounds(bounds orb.Bound, paddingPx int)
}

// Bounds returns the bounding box of a [lat, lon] geometry. orb points are [lon, lat].
func Bounds(g models.Geometry) orb.Bound {
	ls := make(orb.LineString, 0, len(g))
	for _, pt := range g {
		ls = append(ls, orb.Point{pt[1], pt[0]})
	}
	return ls.Bound()
}

// Fit is the last viewport instruction issued to a BoundsRecorder.
type Fit struct {
	SouthWest models.Point `json:"south_west"`
	NorthEast models.Point `json:"north_east"`
	PaddingPx int          `json:"padding_px"`
}

// BoundsRecorder is a Viewport that keeps the latest fit so a remote map can apply it.
type BoundsRecorder struct {
	mu   sync.Mutex
	last *Fit
}

// FitBounds implements Viewport.
func (r *BoundsRecorder) FitBounds(bounds orb.Bound, paddingPx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &Fit{
		SouthWest: models.Point{Lat: bounds.Min.Lat(), Lon: bounds.Min.Lon()},
		NorthEast: models.Point{Lat: bounds.Max.Lat(), Lon: bounds.Max.Lon()},
		PaddingPx: paddingPx,
	}
}

// Last returns the most recent fit, or nil when none was issued.
func (r *BoundsRecorder) Last() *Fit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	f := *r.last
	return &f
}
