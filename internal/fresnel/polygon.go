package fresnel

import (
	"math"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
)

// Sampling bounds for BuildPolygon.
const (
	MinAutoSamples     = 48
	MaxSamples         = 360
	MinExplicitSamples = 24
	samplesPerKm       = 60
	sampleOffset       = 36
)

// Option configures BuildPolygon.
type Option func(*polygonOptions)

type polygonOptions struct {
	samples int
}

// WithSamples overrides the adaptive sample count. Values are clamped to
// [MinExplicitSamples, MaxSamples]; non-positive values keep the adaptive
// count.
func WithSamples(n int) Option {
	return func(o *polygonOptions) {
		o.samples = n
	}
}

// SampleCount returns the number of boundary intervals per side for a
// path of the given length. A positive requested value overrides the
// adaptive count within the explicit bounds.
func SampleCount(pathMeters float64, requested int) int {
	if requested > 0 {
		return clampInt(requested, MinExplicitSamples, MaxSamples)
	}
	auto := int(math.Round(pathMeters/1000*samplesPerKm)) + sampleOffset
	return clampInt(auto, MinAutoSamples, MaxSamples)
}

// BuildPolygon returns the first Fresnel zone envelope around the link a→b
// as a closed ring. The left boundary walks a→b offset by +r along the
// perpendicular, the right boundary walks back b→a offset by −r.
// Degenerate input yields an empty polygon.
func BuildPolygon(a, b geo.Point, freqGHz float64, opts ...Option) model.Polygon {
	o := polygonOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if !a.Finite() || !b.Finite() || freqGHz <= 0 || math.IsInf(freqGHz, 0) || math.IsNaN(freqGHz) {
		return model.Polygon{}
	}

	pathM := geo.Distance(a, b) * 1000
	if !(pathM > 0) {
		return model.Polygon{}
	}

	midLat := (a.Lat + b.Lat) / 2
	mpdLng := geo.SafeMetersPerDegreeLongitude(midLat)

	dEast := (b.Lng - a.Lng) * mpdLng
	dNorth := (b.Lat - a.Lat) * geo.MetersPerDegreeLatitude
	planeLen := math.Hypot(dEast, dNorth)
	if planeLen == 0 || math.IsNaN(planeLen) || math.IsInf(planeLen, 0) {
		return model.Polygon{}
	}

	samples := SampleCount(planeLen, o.samples)

	// Unit vector along the link and its left-hand perpendicular.
	ux, uy := dEast/planeLen, dNorth/planeLen
	px, py := -uy, ux

	vertex := func(i int, side float64) (geo.Point, bool) {
		t := float64(i) / float64(samples)
		r := RadiusMeters(pathM, t*pathM, freqGHz) * side
		along := t * planeLen
		lat := a.Lat + (uy*along+py*r)/geo.MetersPerDegreeLatitude
		lng := a.Lng + (ux*along+px*r)/mpdLng
		if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
			return geo.Point{}, false
		}
		return geo.Point{Lat: lat, Lng: lng}, true
	}

	ring := make(model.Polygon, 0, 2*samples+2)
	push := func(p geo.Point) {
		// The zone has zero radius at both ends, so the two boundaries
		// meet there; collapse the repeated vertex.
		if n := len(ring); n > 0 && ring[n-1] == p {
			return
		}
		ring = append(ring, p)
	}

	for i := 0; i <= samples; i++ {
		if p, ok := vertex(i, 1); ok {
			push(p)
		}
	}
	for i := samples; i >= 0; i-- {
		if p, ok := vertex(i, -1); ok {
			push(p)
		}
	}

	if len(ring) > 1 && ring[len(ring)-1] == ring[0] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return model.Polygon{}
	}

	return append(ring, ring[0])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
