package geo

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Placement classification constants.
const (
	ClassLand  = "land"
	ClassWater = "water"
)

// waterKeywords are matched as whole words against the case-folded place
// description.
var waterKeywords = []string{
	"ocean",
	"sea",
	"bay",
	"gulf",
	"strait",
	"channel",
	"lake",
	"river",
}

// waterFeatureTypes are OSM category/type values that mark a water body
// even when the display name is neutral.
var waterFeatureTypes = map[string]bool{
	"water":     true,
	"waterway":  true,
	"bay":       true,
	"strait":    true,
	"coastline": true,
	"reservoir": true,
}

// PlaceDescription is the subset of a reverse-geocode result the
// classifier inspects.
type PlaceDescription struct {
	DisplayName string
	Address     map[string]string
	Category    string
	Type        string
}

// Classify returns ClassWater or ClassLand for a reverse-geocoded place.
// Rules:
//   - nil description (lookup failed, timed out, provider error): water
//   - empty description (nothing known about the location): water
//   - OSM category or type names a water feature: water
//   - a water keyword in the display name or any address value: water
//   - otherwise: land
func Classify(place *PlaceDescription) string {
	if place == nil {
		return ClassWater
	}
	if strings.TrimSpace(place.DisplayName) == "" && len(place.Address) == 0 {
		return ClassWater
	}

	folder := cases.Fold()
	if waterFeatureTypes[folder.String(place.Category)] || waterFeatureTypes[folder.String(place.Type)] {
		return ClassWater
	}

	if containsWaterKeyword(folder, place.DisplayName) {
		return ClassWater
	}

	// Deterministic order keeps the debug output stable.
	keys := make([]string, 0, len(place.Address))
	for k := range place.Address {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if waterFeatureTypes[folder.String(k)] || containsWaterKeyword(folder, place.Address[k]) {
			return ClassWater
		}
	}

	return ClassLand
}

// MatchedWaterKeyword returns the first water keyword found in s, or "".
func MatchedWaterKeyword(s string) string {
	folder := cases.Fold()
	words := splitWords(folder.String(s))
	for _, kw := range waterKeywords {
		if words[kw] {
			return kw
		}
	}
	return ""
}

func containsWaterKeyword(folder cases.Caser, s string) bool {
	if s == "" {
		return false
	}
	words := splitWords(folder.String(s))
	for _, kw := range waterKeywords {
		if words[kw] {
			return true
		}
	}
	return false
}

func splitWords(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := make(map[string]bool, len(fields))
	for _, f := range fields {
		words[f] = true
	}
	return words
}
