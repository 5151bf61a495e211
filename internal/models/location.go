package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

// Point represents a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Valid reports whether the point lies inside the latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// RouteQuery is the body of a routing request between the requester's origin and a donor.
type RouteQuery struct {
	Origin      Point `json:"origin"`
	Destination Point `json:"destination"`
}

// Validate checks both endpoints of the query.
func (q RouteQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Geometry is an ordered sequence of coordinate pairs. The routing backend does not
// guarantee the axis order of the pairs it returns.
type Geometry [][2]float64

// UnmarshalJSON accepts either an array of numeric pairs or an encoded polyline string.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = nil
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		coords, _, err := polyline.DecodeCoords([]byte(encoded))
		if err != nil {
			return fmt.Errorf("models: invalid encoded polyline: %w", err)
		}
		out := make(Geometry, 0, len(coords))
		for _, c := range coords {
			out = append(out, [2]float64{c[0], c[1]})
		}
		*g = out
		return nil
	}

	var raw [][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("models: geometry must be coordinate pairs or an encoded polyline: %w", err)
	}
	out := make(Geometry, 0, len(raw))
	for i, pt := range raw {
		if len(pt) < 2 {
			return fmt.Errorf("models: geometry point %d has %d components", i, len(pt))
		}
		out = append(out, [2]float64{pt[0], pt[1]})
	}
	*g = out
	return nil
}

// Swapped returns a copy of g with the two components of every point exchanged.
func (g Geometry) Swapped() Geometry {
	if g == nil {
		return nil
	}
	out := make(Geometry, len(g))
	for i, pt := range g {
		out[i] = [2]float64{pt[1], pt[0]}
	}
	return out
}

// LooksLonLat reports whether the first coordinate of the first point is outside the
// latitude range, which is taken to mean the sequence is in [lon, lat] order.
func (g Geometry) LooksLonLat() bool {
	return len(g) > 0 && math.Abs(g[0][0]) > 90
}

// RouteResult is the routing backend's response.
type RouteResult struct {
	Geometry        Geometry `json:"geometry"`
	DistanceMeters  *float64 `json:"distance_m"`
	DurationSeconds *float64 `json:"duration_s"`
}
