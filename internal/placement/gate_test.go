package placement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfplan/internal/store"
	"github.com/sells-group/rfplan/pkg/geocode"
)

type stubGeocoder struct {
	place *geocode.Place
	err   error
	delay time.Duration
	calls int
}

func (s *stubGeocoder) Reverse(ctx context.Context, _, _ float64) (*geocode.Place, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.place, s.err
}

func TestPlace_Land(t *testing.T) {
	g := store.NewGraph()
	gc := &stubGeocoder{place: &geocode.Place{
		DisplayName: "Hosur, Krishnagiri, Tamil Nadu, India",
		Category:    "place",
		Type:        "village",
	}}
	gate := NewGate(g, gc)

	tw, err := gate.Place(context.Background(), 12.0, 77.0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, tw.FreqGHz)
	assert.Equal(t, 1, g.Counts().Towers)

	name, ok := g.PlaceName(tw.CoordKey())
	require.True(t, ok)
	assert.Equal(t, "Hosur, Krishnagiri, Tamil Nadu, India", name)
}

func TestPlace_ExplicitFrequency(t *testing.T) {
	g := store.NewGraph()
	gate := NewGate(g, &stubGeocoder{place: &geocode.Place{DisplayName: "Denver, Colorado"}}, WithDefaultFrequency(2.4))

	tw, err := gate.Place(context.Background(), 39.7, -104.9, 11)
	require.NoError(t, err)
	assert.Equal(t, 11.0, tw.FreqGHz)

	tw, err = gate.Place(context.Background(), 39.8, -104.9, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.4, tw.FreqGHz)
}

func TestPlace_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		gc     *stubGeocoder
		reason string
	}{
		{
			name:   "water keyword",
			gc:     &stubGeocoder{place: &geocode.Place{DisplayName: "Bay of Bengal"}},
			reason: ReasonWater,
		},
		{
			name:   "water type",
			gc:     &stubGeocoder{place: &geocode.Place{DisplayName: "Lago Maggiore", Category: "natural", Type: "water"}},
			reason: ReasonWater,
		},
		{
			name:   "empty answer",
			gc:     &stubGeocoder{place: &geocode.Place{}},
			reason: ReasonWater,
		},
		{
			name:   "provider error",
			gc:     &stubGeocoder{err: geocode.ErrUnableToGeocode},
			reason: ReasonUnverified,
		},
		{
			name:   "nil place",
			gc:     &stubGeocoder{},
			reason: ReasonUnverified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := store.NewGraph()
			gate := NewGate(g, tt.gc)

			_, err := gate.Place(context.Background(), 15, 88, 5)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPlacementRejected))

			re, ok := AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, re.Reason)
			assert.Equal(t, 0, g.Counts().Towers)
			assert.Equal(t, 0, g.Counts().Places)
		})
	}
}

func TestPlace_WaterMessageNamesKeyword(t *testing.T) {
	gate := NewGate(store.NewGraph(), &stubGeocoder{place: &geocode.Place{DisplayName: "Gulf of Mexico"}})
	_, err := gate.Place(context.Background(), 25, -90, 5)
	re, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, "location is on water (gulf)", re.Message)
}

func TestPlace_Timeout(t *testing.T) {
	g := store.NewGraph()
	gc := &stubGeocoder{place: &geocode.Place{DisplayName: "Somewhere dry"}, delay: time.Second}
	gate := NewGate(g, gc, WithTimeout(20*time.Millisecond))

	_, err := gate.Place(context.Background(), 10, 10, 5)
	re, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonUnverified, re.Reason)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, g.Counts().Towers)
}

func TestPlace_InvalidInput(t *testing.T) {
	g := store.NewGraph()
	gc := &stubGeocoder{place: &geocode.Place{DisplayName: "Land"}}
	gate := NewGate(g, gc)

	_, err := gate.Place(context.Background(), 91, 0, 5)
	re, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonInvalid, re.Reason)

	_, err = gate.Place(context.Background(), 10, 10, -1)
	assert.True(t, errors.Is(err, store.ErrInvalidTower))
	assert.Equal(t, 0, gc.calls)
}

func TestPlace_NoGeocoder(t *testing.T) {
	gate := NewGate(store.NewGraph(), nil)
	_, err := gate.Place(context.Background(), 10, 10, 5)
	assert.True(t, errors.Is(err, ErrPlacementRejected))
}

func TestRejectedError_Error(t *testing.T) {
	err := &RejectedError{Lat: 1, Lng: 2, Message: "location is on water"}
	assert.Equal(t, "placement rejected at (1.000000, 2.000000): location is on water", err.Error())
}
