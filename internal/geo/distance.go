package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// MetersPerDegreeLatitude is the tangent-plane scale along a meridian.
const MetersPerDegreeLatitude = 111320.0

// minMetersPerDegree guards tangent-plane conversions near the poles.
const minMetersPerDegree = 1e-6

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the great-circle distance between two points using
// the haversine formula on a spherical Earth.
func DistanceKm(latA, lngA, latB, lngB float64) float64 {
	if latA == latB && lngA == lngB {
		return 0
	}

	dLat := toRadians(latB - latA)
	dLng := toRadians(lngB - lngA)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(toRadians(latA))*math.Cos(toRadians(latB))*sinLng*sinLng

	// Rounding can push a a hair outside [0,1] for antipodal points.
	a = math.Max(0, math.Min(1, a))

	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// Distance is DistanceKm for Points.
func Distance(a, b Point) float64 {
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// MetersPerDegreeLongitude returns the east-west tangent-plane scale at the
// given latitude. It tends to zero at the poles; see
// SafeMetersPerDegreeLongitude for a divisor-safe variant.
func MetersPerDegreeLongitude(latDeg float64) float64 {
	return MetersPerDegreeLatitude * math.Abs(math.Cos(toRadians(latDeg)))
}

// SafeMetersPerDegreeLongitude is MetersPerDegreeLongitude with the
// latitude constant substituted when the scale is degenerate.
func SafeMetersPerDegreeLongitude(latDeg float64) float64 {
	m := MetersPerDegreeLongitude(latDeg)
	if math.IsNaN(m) || math.IsInf(m, 0) || m < minMetersPerDegree {
		return MetersPerDegreeLatitude
	}
	return m
}

// Interpolate returns the point a fraction t of the way from a to b in
// lat/lng space. t is clamped to [0,1]. This is not a geodesic
// interpolation; it is accurate enough for links of a few hundred km.
func Interpolate(a, b Point, t float64) Point {
	t = math.Max(0, math.Min(1, t))
	return Point{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// SamplePath returns segments+1 evenly spaced points from a to b,
// inclusive of both endpoints.
func SamplePath(a, b Point, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	pts := make([]Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		pts = append(pts, Interpolate(a, b, float64(i)/float64(segments)))
	}
	return pts
}
