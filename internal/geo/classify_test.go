package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		place    *PlaceDescription
		expected string
	}{
		{
			name:     "water: lookup failed",
			place:    nil,
			expected: ClassWater,
		},
		{
			name:     "water: empty description",
			place:    &PlaceDescription{},
			expected: ClassWater,
		},
		{
			name:     "land: city address",
			place:    &PlaceDescription{DisplayName: "MG Road, Bengaluru, Karnataka, India", Address: map[string]string{"city": "Bengaluru", "country": "India"}},
			expected: ClassLand,
		},
		{
			name:     "water: ocean in display name",
			place:    &PlaceDescription{DisplayName: "Indian Ocean"},
			expected: ClassWater,
		},
		{
			name:     "water: keyword is case folded",
			place:    &PlaceDescription{DisplayName: "BAY OF BENGAL"},
			expected: ClassWater,
		},
		{
			name:     "water: keyword only in address fields",
			place:    &PlaceDescription{DisplayName: "Unnamed", Address: map[string]string{"body": "Lake Tahoe"}},
			expected: ClassWater,
		},
		{
			name:     "water: osm water category",
			place:    &PlaceDescription{DisplayName: "Vembanad", Category: "natural", Type: "water"},
			expected: ClassWater,
		},
		{
			name:     "water: waterway address key",
			place:    &PlaceDescription{DisplayName: "Kaveri", Address: map[string]string{"waterway": "Kaveri"}},
			expected: ClassWater,
		},
		{
			name:     "land: keyword as substring only",
			place:    &PlaceDescription{DisplayName: "Seattle, Riverside County, Bayern"},
			expected: ClassLand,
		},
		{
			name:     "water: strait",
			place:    &PlaceDescription{DisplayName: "Strait of Gibraltar"},
			expected: ClassWater,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.place))
		})
	}
}

func TestMatchedWaterKeyword(t *testing.T) {
	assert.Equal(t, "gulf", MatchedWaterKeyword("Gulf of Mexico"))
	assert.Equal(t, "channel", MatchedWaterKeyword("English Channel"))
	assert.Equal(t, "", MatchedWaterKeyword("Channelview, Texas"))
	assert.Equal(t, "", MatchedWaterKeyword(""))
}
