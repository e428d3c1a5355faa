package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/pkg/elevation"
)

// Outcome records what an enrichment task wrote, dropped, or failed.
type Outcome struct {
	Key                model.LinkKey
	PolygonCommitted   bool
	ElevationCommitted bool
	ElevationDropped   bool
	ElevationErr       error
	PlacesCommitted    []string
	PlacesDropped      []string
	PlacesCached       []string
	PlaceErrs          map[string]error
}

// Task is a running enrichment.
type Task struct {
	mu      sync.Mutex
	outcome Outcome
	done    chan struct{}
}

func newTask(key model.LinkKey) *Task {
	return &Task{
		outcome: Outcome{Key: key},
		done:    make(chan struct{}),
	}
}

// Done is closed when the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task has settled and returns its outcome.
func (t *Task) Wait() Outcome {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func (t *Task) update(fn func(*Outcome)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.outcome)
}

func (o *Orchestrator) run(ctx context.Context, task *Task, a, b model.Tower) {
	defer close(task.done)

	// Every branch records its own failure; none cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		o.fetchElevation(ctx, task, a, b)
		return nil
	})

	for _, t := range uniqueCoords(a, b) {
		g.Go(func() error {
			res := o.resolvePlace(ctx, t.Lat, t.Lng)
			task.update(func(out *Outcome) { res.record(out, t.CoordKey()) })
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) fetchElevation(ctx context.Context, task *Task, a, b model.Tower) {
	if o.elevation == nil {
		return
	}
	key := task.outcome.Key

	pts := geo.SamplePath(a.Point(), b.Point(), o.segments)
	locs := make([]elevation.Location, len(pts))
	for i, p := range pts {
		locs[i] = elevation.Location{Lat: p.Lat, Lng: p.Lng}
	}

	lctx, cancel := o.lookupContext(ctx)
	defer cancel()

	results, err := o.elevation.Lookup(lctx, locs)
	if err != nil {
		o.stats.elevFailed.Add(1)
		o.log.Warn("elevation lookup failed", zap.Stringer("link", key), zap.Error(err))
		task.update(func(out *Outcome) { out.ElevationErr = err })
		return
	}

	samples := make([]model.ElevationSample, len(results))
	for i, r := range results {
		samples[i] = model.ElevationSample{Lat: r.Lat, Lng: r.Lng, ElevationM: r.ElevationM}
	}
	if !o.graph.CommitElevationProfile(key, samples) {
		o.stats.elevDropped.Add(1)
		o.log.Debug("elevation profile dropped, link removed", zap.Stringer("link", key))
		task.update(func(out *Outcome) { out.ElevationDropped = true })
		return
	}
	o.stats.elevCommitted.Add(1)
	task.update(func(out *Outcome) { out.ElevationCommitted = true })
}

// uniqueCoords returns the endpoints with distinct coordinate keys.
func uniqueCoords(a, b model.Tower) []model.Tower {
	if a.CoordKey() == b.CoordKey() {
		return []model.Tower{a}
	}
	return []model.Tower{a, b}
}
