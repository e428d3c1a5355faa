// Package geo provides spherical distance, tangent-plane projection and
// land/water classification for tower placement.
package geo

import (
	"fmt"
	"math"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and in range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Finite reports whether both components are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// CoordKey returns the place-name cache key for the point.
func (p Point) CoordKey() string {
	return CoordKey(p.Lat, p.Lng)
}

// CoordKey rounds a coordinate to 6 decimal digits (~0.1 m) so that the
// same map position always produces the same cache key.
func CoordKey(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}
