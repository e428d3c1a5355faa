// Package placement decides whether a tower may be placed at a location.
// The gate is fail-closed: a location is accepted only when the reverse
// geocoder positively describes it as land.
package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/store"
	"github.com/sells-group/rfplan/pkg/geocode"
)

// DefaultTimeout bounds the reverse-geocoding lookup.
const DefaultTimeout = 8 * time.Second

// ErrPlacementRejected is wrapped by every RejectedError.
var ErrPlacementRejected = eris.New("placement rejected")

// Rejection reasons.
const (
	ReasonInvalid    = "invalid_location"
	ReasonWater      = "water"
	ReasonUnverified = "unverified"
)

// RejectedError explains why a placement was refused.
type RejectedError struct {
	Lat, Lng float64
	Reason   string
	Message  string
	Cause    error
}

func (e *RejectedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("placement rejected at (%.6f, %.6f): %s: %v", e.Lat, e.Lng, e.Message, e.Cause)
	}
	return fmt.Sprintf("placement rejected at (%.6f, %.6f): %s", e.Lat, e.Lng, e.Message)
}

// Is matches ErrPlacementRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrPlacementRejected
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Option configures a Gate.
type Option func(*Gate)

// WithTimeout sets the lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithDefaultFrequency sets the frequency used when Place is called with a
// zero frequency.
func WithDefaultFrequency(f float64) Option {
	return func(g *Gate) {
		if model.ValidFrequency(f) {
			g.defaultFreq = f
		}
	}
}

// Gate validates placements and adds accepted towers to the graph.
type Gate struct {
	graph       *store.Graph
	geocoder    geocode.Client
	timeout     time.Duration
	defaultFreq float64
	log         *zap.Logger
}

// NewGate creates a Gate.
func NewGate(graph *store.Graph, geocoder geocode.Client, opts ...Option) *Gate {
	g := &Gate{
		graph:       graph,
		geocoder:    geocoder,
		timeout:     DefaultTimeout,
		defaultFreq: model.DefaultFreqGHz,
		log:         zap.L().With(zap.String("component", "placement")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Place checks the location and, when it is land, adds a tower there. A
// zero freqGHz selects the default frequency. The tower set is unchanged
// on rejection.
func (g *Gate) Place(ctx context.Context, lat, lng, freqGHz float64) (model.Tower, error) {
	if freqGHz == 0 {
		freqGHz = g.defaultFreq
	}
	if !(geo.Point{Lat: lat, Lng: lng}).Valid() {
		return model.Tower{}, &RejectedError{Lat: lat, Lng: lng, Reason: ReasonInvalid, Message: "coordinates out of range"}
	}
	if !model.ValidFrequency(freqGHz) {
		return model.Tower{}, eris.Wrapf(store.ErrInvalidTower, "frequency %v", freqGHz)
	}

	place, err := g.lookup(ctx, lat, lng)
	if err != nil {
		g.log.Info("placement rejected, location unverified",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return model.Tower{}, &RejectedError{
			Lat: lat, Lng: lng,
			Reason:  ReasonUnverified,
			Message: "location could not be verified as land",
			Cause:   err,
		}
	}

	desc := describe(place)
	if geo.Classify(desc) == geo.ClassWater {
		msg := "location is on water"
		if kw := geo.MatchedWaterKeyword(desc.DisplayName); kw != "" {
			msg = fmt.Sprintf("location is on water (%s)", kw)
		}
		g.log.Info("placement rejected, water",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.String("display_name", desc.DisplayName),
		)
		return model.Tower{}, &RejectedError{Lat: lat, Lng: lng, Reason: ReasonWater, Message: msg}
	}

	t, err := g.graph.AddTower(lat, lng, freqGHz)
	if err != nil {
		return model.Tower{}, eris.Wrap(err, "placement: add tower")
	}
	if place.DisplayName != "" {
		g.graph.CommitPlaceName(t.CoordKey(), place.DisplayName)
	}
	g.log.Debug("tower placed", zap.String("id", t.ID), zap.String("display_name", place.DisplayName))
	return t, nil
}

func (g *Gate) lookup(ctx context.Context, lat, lng float64) (*geocode.Place, error) {
	if g.geocoder == nil {
		return nil, eris.New("placement: no geocoder configured")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	place, err := g.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, eris.Wrapf(err, "placement: lookup timed out after %s", g.timeout)
		}
		return nil, err
	}
	if place == nil {
		return nil, eris.New("placement: empty lookup result")
	}
	return place, nil
}

func describe(p *geocode.Place) *geo.PlaceDescription {
	return &geo.PlaceDescription{
		DisplayName: p.DisplayName,
		Address:     p.Address,
		Category:    p.Category,
		Type:        p.Type,
	}
}

// AsRejection extracts a RejectedError from err.
func AsRejection(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
