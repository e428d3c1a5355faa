package model

import "github.com/sells-group/rfplan/internal/geo"

// Polygon is a closed ring of (lat, lng) vertices. The first and last
// vertices are equal for any non-empty polygon.
type Polygon []geo.Point

// Closed reports whether the ring is explicitly closed.
func (p Polygon) Closed() bool {
	return len(p) > 1 && p[0] == p[len(p)-1]
}

// Clone returns an independent copy.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// ElevationSample is one point of an elevation profile along a link.
type ElevationSample struct {
	Lat        float64 `json:"latitude"`
	Lng        float64 `json:"longitude"`
	ElevationM float64 `json:"elevation"`
}

// CloneSamples returns an independent copy of an elevation profile.
func CloneSamples(s []ElevationSample) []ElevationSample {
	if s == nil {
		return nil
	}
	out := make([]ElevationSample, len(s))
	copy(out, s)
	return out
}
