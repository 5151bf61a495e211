package mapview

import "pulsenet-client/internal/models"

// NormalizeAxisOrder returns geometry in [lat, lon] order. Only the first point is
// inspected: when its first component is outside the latitude range every point is
// swapped, otherwise the sequence is returned unchanged.
func NormalizeAxisOrder(g models.Geometry) models.Geometry {
	if g.LooksLonLat() {
		return g.Swapped()
	}
	out := make(models.Geometry, len(g))
	copy(out, g)
	return out
}
