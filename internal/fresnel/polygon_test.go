package fresnel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfplan/internal/geo"
)

var (
	towerA = geo.Point{Lat: 12.0, Lng: 77.0}
	towerB = geo.Point{Lat: 12.1, Lng: 77.1}
)

func TestSampleCount(t *testing.T) {
	tests := []struct {
		name      string
		meters    float64
		requested int
		want      int
	}{
		{name: "short link uses floor", meters: 100, want: MinAutoSamples},
		{name: "medium link scales", meters: 2000, want: 156},
		{name: "long link hits ceiling", meters: 50000, want: MaxSamples},
		{name: "explicit within bounds", meters: 50000, requested: 80, want: 80},
		{name: "explicit below floor", meters: 50000, requested: 3, want: MinExplicitSamples},
		{name: "explicit above ceiling", meters: 10, requested: 1000, want: MaxSamples},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleCount(tt.meters, tt.requested))
		})
	}
}

func TestBuildPolygon_ClosedRing(t *testing.T) {
	poly := BuildPolygon(towerA, towerB, 5)
	require.NotEmpty(t, poly)
	assert.True(t, poly.Closed())

	distinct := make(map[geo.Point]bool)
	for _, v := range poly {
		distinct[v] = true
		assert.True(t, v.Finite())
	}
	assert.GreaterOrEqual(t, len(distinct), 3)

	// Ring starts at A and passes through B.
	assert.Equal(t, towerA, poly[0])
	assert.InDelta(t, towerB.Lat, poly[MaxSamples].Lat, 1e-9)
	assert.InDelta(t, towerB.Lng, poly[MaxSamples].Lng, 1e-9)
}

func TestBuildPolygon_ExplicitSamples(t *testing.T) {
	poly := BuildPolygon(towerA, towerB, 5, WithSamples(24))
	// 25 left vertices, 23 right interior vertices, closing vertex.
	assert.Len(t, poly, 2*24+1)
	assert.True(t, poly.Closed())

	for i := 1; i < len(poly); i++ {
		assert.NotEqual(t, poly[i-1], poly[i], "consecutive duplicate at %d", i)
	}
}

func TestBuildPolygon_WidthMatchesMidpointRadius(t *testing.T) {
	const samples = 100
	poly := BuildPolygon(towerA, towerB, 5, WithSamples(samples))
	require.Len(t, poly, 2*samples+1)

	mid := geo.Interpolate(towerA, towerB, 0.5)
	left := poly[samples/2]
	mpdLng := geo.SafeMetersPerDegreeLongitude((towerA.Lat + towerB.Lat) / 2)
	offset := math.Hypot((left.Lat-mid.Lat)*geo.MetersPerDegreeLatitude, (left.Lng-mid.Lng)*mpdLng)

	want := MidpointRadiusMeters(geo.Distance(towerA, towerB), 5)
	assert.InDelta(t, want, offset, 0.05)

	// Left and right boundaries mirror each other around the centreline.
	right := poly[len(poly)-1-samples/2]
	assert.InDelta(t, mid.Lat, (left.Lat+right.Lat)/2, 1e-6)
	assert.InDelta(t, mid.Lng, (left.Lng+right.Lng)/2, 1e-6)
}

func TestBuildPolygon_Deterministic(t *testing.T) {
	first := BuildPolygon(towerA, towerB, 5.8)
	second := BuildPolygon(towerA, towerB, 5.8)
	assert.Equal(t, first, second)
}

func TestBuildPolygon_Degenerate(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		a, b geo.Point
		freq float64
	}{
		{name: "same point", a: towerA, b: towerA, freq: 5},
		{name: "nan latitude", a: geo.Point{Lat: nan, Lng: 77}, b: towerB, freq: 5},
		{name: "infinite longitude", a: towerA, b: geo.Point{Lat: 12, Lng: math.Inf(1)}, freq: 5},
		{name: "zero frequency", a: towerA, b: towerB, freq: 0},
		{name: "negative frequency", a: towerA, b: towerB, freq: -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poly := BuildPolygon(tt.a, tt.b, tt.freq)
			assert.NotNil(t, poly)
			assert.Empty(t, poly)
		})
	}
}

func TestBuildPolygon_NearPoleStaysFinite(t *testing.T) {
	poly := BuildPolygon(geo.Point{Lat: 90, Lng: 0}, geo.Point{Lat: 90, Lng: 10}, 5)
	for _, v := range poly {
		assert.True(t, v.Finite())
	}

	poly = BuildPolygon(geo.Point{Lat: 89.99, Lng: 0}, geo.Point{Lat: 89.98, Lng: 120}, 5)
	require.NotEmpty(t, poly)
	for _, v := range poly {
		assert.True(t, v.Finite())
	}
}
