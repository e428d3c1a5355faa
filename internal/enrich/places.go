package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
)

// maxPrefetchConcurrency bounds concurrent place lookups during prefetch.
// The geocoder's own rate limiter still applies.
const maxPrefetchConcurrency = 4

var errNoDisplayName = eris.New("enrich: place has no display name")

type placeState int

const (
	placeCached placeState = iota
	placeCommitted
	placeDropped
	placeFailed
	placeDisabled
)

type placeResult struct {
	state placeState
	name  string
	err   error
}

func (r placeResult) record(out *Outcome, coordKey string) {
	switch r.state {
	case placeCached:
		out.PlacesCached = append(out.PlacesCached, coordKey)
	case placeCommitted:
		out.PlacesCommitted = append(out.PlacesCommitted, coordKey)
	case placeDropped:
		out.PlacesDropped = append(out.PlacesDropped, coordKey)
	case placeFailed:
		if out.PlaceErrs == nil {
			out.PlaceErrs = make(map[string]error)
		}
		out.PlaceErrs[coordKey] = r.err
	}
}

// resolvePlace fetches and commits the place name at lat/lng unless it is
// already cached. Concurrent calls for the same coordinate key share one
// lookup. The shared lookup is bound to the orchestrator, not to ctx; a
// caller whose ctx ends stops waiting but leaves the lookup running for
// the others.
func (o *Orchestrator) resolvePlace(ctx context.Context, lat, lng float64) placeResult {
	key := geo.CoordKey(lat, lng)
	if name, ok := o.graph.PlaceName(key); ok {
		return placeResult{state: placeCached, name: name}
	}
	if o.geocoder == nil {
		return placeResult{state: placeDisabled}
	}

	ch := o.places.DoChan(key, func() (any, error) {
		if name, ok := o.graph.PlaceName(key); ok {
			return placeResult{state: placeCached, name: name}, nil
		}

		lctx, cancel := o.lookupContext(o.ctx)
		defer cancel()

		place, err := o.geocoder.Reverse(lctx, lat, lng)
		if err == nil && place.DisplayName == "" {
			err = errNoDisplayName
		}
		if err != nil {
			o.stats.placeErr.Add(1)
			o.log.Warn("reverse geocode failed", zap.String("coord", key), zap.Error(err))
			return placeResult{state: placeFailed, err: err}, nil
		}

		if !o.graph.CommitPlaceName(key, place.DisplayName) {
			o.stats.placeDropped.Add(1)
			o.log.Debug("place name dropped, no tower at coordinate", zap.String("coord", key))
			return placeResult{state: placeDropped, name: place.DisplayName}, nil
		}
		o.stats.placeCommitted.Add(1)
		return placeResult{state: placeCommitted, name: place.DisplayName}, nil
	})

	select {
	case r := <-ch:
		return r.Val.(placeResult)
	case <-ctx.Done():
		return placeResult{state: placeFailed, err: eris.Wrapf(ctx.Err(), "place lookup %s abandoned", key)}
	}
}

// PrefetchResult summarises a PrefetchPlaceNames run.
type PrefetchResult struct {
	Committed int `json:"committed"`
	Cached    int `json:"cached"`
	Dropped   int `json:"dropped"`
	Failed    int `json:"failed"`
}

// PrefetchPlaceNames resolves the place name of every tower that does not
// have one yet and blocks until all lookups have settled.
func (o *Orchestrator) PrefetchPlaceNames(ctx context.Context) PrefetchResult {
	seen := make(map[string]bool)
	var targets []model.Tower
	for _, t := range o.graph.Towers() {
		k := t.CoordKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		targets = append(targets, t)
	}

	results := make([]placeResult, len(targets))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxPrefetchConcurrency)
	for i, t := range targets {
		g.Go(func() error {
			results[i] = o.resolvePlace(gCtx, t.Lat, t.Lng)
			return nil
		})
	}
	_ = g.Wait()

	var res PrefetchResult
	for _, r := range results {
		switch r.state {
		case placeCommitted:
			res.Committed++
		case placeCached:
			res.Cached++
		case placeDropped:
			res.Dropped++
		case placeFailed:
			res.Failed++
		}
	}
	o.log.Info("place names prefetched",
		zap.Int("towers", len(targets)),
		zap.Int("committed", res.Committed),
		zap.Int("failed", res.Failed),
	)
	return res
}
