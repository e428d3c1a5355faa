// Package enrich computes and fetches the data derived from a link: its
// Fresnel polygon, the terrain profile beneath it, and the place names of
// its endpoints. Every asynchronous result is committed through the graph's
// liveness-guarded writers, so edits that race a fetch always win.
package enrich

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/rfplan/internal/fresnel"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/store"
	"github.com/sells-group/rfplan/pkg/elevation"
	"github.com/sells-group/rfplan/pkg/geocode"
)

// DefaultSegments is the number of path segments sampled for an elevation
// profile (segments+1 points).
const DefaultSegments = 20

// ErrStaleLink is returned when a link or one of its towers no longer
// exists. Callers treat it as a no-op.
var ErrStaleLink = eris.New("enrich: link no longer exists")

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSegments sets the number of elevation path segments.
func WithSegments(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.segments = n
		}
	}
}

// WithSamples sets an explicit Fresnel polygon sample count. Zero keeps the
// distance-based default.
func WithSamples(n int) Option {
	return func(o *Orchestrator) {
		o.samples = n
	}
}

// WithLookupTimeout bounds each external lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.lookupTimeout = d
	}
}

// Stats counts enrichment results since startup.
type Stats struct {
	Tasks               int64 `json:"tasks"`
	Stale               int64 `json:"stale"`
	PolygonsCommitted   int64 `json:"polygons_committed"`
	ElevationsCommitted int64 `json:"elevations_committed"`
	ElevationsDropped   int64 `json:"elevations_dropped"`
	ElevationFailures   int64 `json:"elevation_failures"`
	PlacesCommitted     int64 `json:"places_committed"`
	PlacesDropped       int64 `json:"places_dropped"`
	PlaceFailures       int64 `json:"place_failures"`
}

type counters struct {
	tasks, stale                           atomic.Int64
	polygons                               atomic.Int64
	elevCommitted, elevDropped, elevFailed atomic.Int64
	placeCommitted, placeDropped, placeErr atomic.Int64
}

// Orchestrator runs enrichment tasks against a graph.
type Orchestrator struct {
	graph     *store.Graph
	geocoder  geocode.Client
	elevation elevation.Client

	segments      int
	samples       int
	lookupTimeout time.Duration

	places singleflight.Group
	stats  counters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *zap.Logger
}

// New creates an Orchestrator. geocoder and elev may be nil, which disables
// the corresponding lookup.
func New(graph *store.Graph, geocoder geocode.Client, elev elevation.Client, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		graph:     graph,
		geocoder:  geocoder,
		elevation: elev,
		segments:  DefaultSegments,
		ctx:       ctx,
		cancel:    cancel,
		log:       zap.L().With(zap.String("component", "enrich")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Close cancels in-flight lookups and waits for their tasks to finish.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// Stats returns a snapshot of the counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Tasks:               o.stats.tasks.Load(),
		Stale:               o.stats.stale.Load(),
		PolygonsCommitted:   o.stats.polygons.Load(),
		ElevationsCommitted: o.stats.elevCommitted.Load(),
		ElevationsDropped:   o.stats.elevDropped.Load(),
		ElevationFailures:   o.stats.elevFailed.Load(),
		PlacesCommitted:     o.stats.placeCommitted.Load(),
		PlacesDropped:       o.stats.placeDropped.Load(),
		PlaceFailures:       o.stats.placeErr.Load(),
	}
}

// Enrich builds and commits the Fresnel polygon for key, then starts the
// elevation and place-name lookups in the background. The returned Task
// completes when both lookups have settled.
func (o *Orchestrator) Enrich(ctx context.Context, key model.LinkKey) (*Task, error) {
	a, b, ok := o.graph.Endpoints(key)
	if !ok {
		return nil, o.stale(key, "endpoints")
	}

	freq := (a.FreqGHz + b.FreqGHz) / 2
	var polyOpts []fresnel.Option
	if o.samples > 0 {
		polyOpts = append(polyOpts, fresnel.WithSamples(o.samples))
	}
	poly := fresnel.BuildPolygon(a.Point(), b.Point(), freq, polyOpts...)

	task := newTask(key)
	if len(poly) > 0 {
		if !o.graph.CommitFresnelPolygon(key, poly) {
			return nil, o.stale(key, "polygon")
		}
		task.outcome.PolygonCommitted = true
		o.stats.polygons.Add(1)
	} else {
		if _, live := o.graph.Link(key); !live {
			return nil, o.stale(key, "polygon")
		}
		o.log.Debug("degenerate link, no polygon", zap.Stringer("link", key))
	}
	o.stats.tasks.Add(1)

	// Lookups outlive the caller's request but not the orchestrator.
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(o.ctx, cancel)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		defer stop()
		o.run(taskCtx, task, a, b)
	}()
	return task, nil
}

// OnLinkCreated enriches a freshly added link.
func (o *Orchestrator) OnLinkCreated(ctx context.Context, link model.Link) (*Task, error) {
	return o.Enrich(ctx, link.Key())
}

// Toggle implements link selection: a shown polygon is hidden, otherwise
// the link is enriched. shown reports the resulting visibility; task is
// nil when the polygon was hidden.
func (o *Orchestrator) Toggle(ctx context.Context, key model.LinkKey) (shown bool, task *Task, err error) {
	if _, live := o.graph.Link(key); !live {
		return false, nil, o.stale(key, "toggle")
	}
	if o.graph.ClearFresnelPolygon(key) {
		return false, nil, nil
	}
	task, err = o.Enrich(ctx, key)
	if err != nil {
		return false, nil, err
	}
	return task.outcome.PolygonCommitted, task, nil
}

func (o *Orchestrator) stale(key model.LinkKey, stage string) error {
	o.stats.stale.Add(1)
	o.log.Debug("stale link reference", zap.Stringer("link", key), zap.String("stage", stage))
	return eris.Wrapf(ErrStaleLink, "link %s", key)
}

func (o *Orchestrator) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.lookupTimeout > 0 {
		return context.WithTimeout(ctx, o.lookupTimeout)
	}
	return context.WithCancel(ctx)
}
