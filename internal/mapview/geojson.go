package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON returns the route overlay as a FeatureCollection with a single LineString.
func (r *Route) GeoJSON() *geojson.FeatureCollection {
	ls := make(orb.LineString, 0, len(r.Geometry))
	for _, pt := range r.Geometry {
		ls = append(ls, orb.Point{pt[1], pt[0]})
	}

	f := geojson.NewFeature(ls)
	if r.DistanceMeters != nil {
		f.Properties["distance_m"] = *r.DistanceMeters
	}
	if r.DurationSeconds != nil {
		f.Properties["duration_s"] = *r.DurationSeconds
	}
	f.Properties["summary"] = r.Summary()

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc
}
