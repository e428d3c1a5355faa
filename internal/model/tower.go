// Package model defines the tower/link graph entities and their derived
// cache values.
package model

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfplan/internal/geo"
)

// DefaultFreqGHz is the frequency assigned to towers placed without one.
const DefaultFreqGHz = 5.0

// Tower is a radio site placed on the map.
type Tower struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	FreqGHz float64 `json:"freq"`
}

// Point returns the tower position.
func (t Tower) Point() geo.Point {
	return geo.Point{Lat: t.Lat, Lng: t.Lng}
}

// CoordKey returns the place-name cache key of the tower position.
func (t Tower) CoordKey() string {
	return geo.CoordKey(t.Lat, t.Lng)
}

// ValidFrequency reports whether f is usable as a tower frequency.
func ValidFrequency(f float64) bool {
	return f > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Link connects two towers. Links are unordered: From/To record the order
// the user picked the endpoints in and carry no meaning beyond display.
type Link struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

// Key returns the canonical key of the link.
func (l Link) Key() LinkKey {
	return NewLinkKey(l.FromID, l.ToID)
}

// Touches reports whether the link has id as an endpoint.
func (l Link) Touches(id string) bool {
	return l.FromID == id || l.ToID == id
}

// linkKeySep separates the two ids in a rendered LinkKey. UUIDs contain
// dashes, so a dash cannot be used.
const linkKeySep = "~"

// LinkKey is the canonical identity of an unordered tower pair. Lo sorts
// before Hi, so both orderings of a pair produce the same key.
type LinkKey struct {
	Lo string
	Hi string
}

// NewLinkKey builds the canonical key for the pair (a, b).
func NewLinkKey(a, b string) LinkKey {
	if b < a {
		a, b = b, a
	}
	return LinkKey{Lo: a, Hi: b}
}

// String renders the key as "lo~hi".
func (k LinkKey) String() string {
	return k.Lo + linkKeySep + k.Hi
}

// Valid reports whether the key names two distinct, non-empty ids.
func (k LinkKey) Valid() bool {
	return k.Lo != "" && k.Hi != "" && k.Lo != k.Hi && !strings.Contains(k.Lo, linkKeySep) && !strings.Contains(k.Hi, linkKeySep)
}

// Has reports whether id is one of the key's endpoints.
func (k LinkKey) Has(id string) bool {
	return k.Lo == id || k.Hi == id
}

// MarshalText implements encoding.TextMarshaler so keys can be used as
// JSON map keys.
func (k LinkKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrMalformedKey is returned for cache keys that cannot name a link or a
// coordinate.
var ErrMalformedKey = eris.New("malformed cache key")

// ParseLinkKey parses "a~b" in either order into its canonical form.
func ParseLinkKey(s string) (LinkKey, error) {
	a, b, ok := strings.Cut(s, linkKeySep)
	if !ok {
		return LinkKey{}, eris.Wrapf(ErrMalformedKey, "link key %q", s)
	}
	k := NewLinkKey(a, b)
	if !k.Valid() {
		return LinkKey{}, eris.Wrapf(ErrMalformedKey, "link key %q", s)
	}
	return k, nil
}

// ValidCoordKey reports whether s has the shape produced by geo.CoordKey.
func ValidCoordKey(s string) bool {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok || lat == "" || lng == "" {
		return false
	}
	return isDecimal(lat) && isDecimal(lng)
}

func isDecimal(s string) bool {
	s = strings.TrimPrefix(s, "-")
	intPart, frac, ok := strings.Cut(s, ".")
	if !ok || intPart == "" || len(frac) != 6 {
		return false
	}
	for _, r := range intPart + frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
