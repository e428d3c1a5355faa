// Package fresnel computes first Fresnel zone radii and the envelope
// polygon drawn around a point-to-point link.
package fresnel

import "math"

// SpeedOfLight in m/s, rounded as RF planning tools conventionally do.
const SpeedOfLight = 3e8

// WavelengthMeters returns the free-space wavelength for a frequency in GHz.
func WavelengthMeters(freqGHz float64) float64 {
	if freqGHz <= 0 {
		return 0
	}
	return SpeedOfLight / (freqGHz * 1e9)
}

// RadiusMeters returns the first Fresnel zone radius at distance x (meters)
// from one end of a path of total length d (meters). The zone pinches to
// zero at both endpoints.
func RadiusMeters(d, x, freqGHz float64) float64 {
	if d <= 0 || x <= 0 || x >= d || freqGHz <= 0 {
		return 0
	}
	lambda := WavelengthMeters(freqGHz)
	return math.Sqrt(lambda * x * (d - x) / d)
}

// MidpointRadiusMeters returns the radius at the widest point of the zone.
func MidpointRadiusMeters(distanceKm, freqGHz float64) float64 {
	d := distanceKm * 1000
	if d <= 0 {
		return 0
	}
	return RadiusMeters(d, d/2, freqGHz)
}

// LegacyMidpointRadiusMeters is the closed form 17.32*sqrt(d1*d2/(f*d))
// with d in km and f in GHz. It equals MidpointRadiusMeters to within the
// rounding of the 17.32 constant and is only used for link labels.
func LegacyMidpointRadiusMeters(distanceKm, freqGHz float64) float64 {
	if distanceKm <= 0 || freqGHz <= 0 {
		return 0
	}
	d1 := distanceKm / 2
	d2 := distanceKm / 2
	return 17.32 * math.Sqrt((d1*d2)/(freqGHz*distanceKm))
}
