package enrich

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/store"
	"github.com/sells-group/rfplan/pkg/elevation"
	"github.com/sells-group/rfplan/pkg/geocode"
)

type fakeGeocoder struct {
	mu    sync.Mutex
	calls map[string]int
	names map[string]string
	err   error
	gate  chan struct{}
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{calls: make(map[string]int), names: make(map[string]string)}
}

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error) {
	key := geo.CoordKey(lat, lng)
	f.mu.Lock()
	f.calls[key]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.names[key]
	if !ok {
		name = "Place " + key
	}
	return &geocode.Place{DisplayName: name, Lat: lat, Lng: lng}, nil
}

func (f *fakeGeocoder) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeGeocoder) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeElevation struct {
	mu       sync.Mutex
	requests [][]elevation.Location
	err      error
	gate     chan struct{}
	started  chan struct{}
}

func (f *fakeElevation) Lookup(ctx context.Context, locs []elevation.Location) ([]elevation.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, locs)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]elevation.Result, len(locs))
	for i, l := range locs {
		out[i] = elevation.Result{Lat: l.Lat, Lng: l.Lng, ElevationM: float64(100 + i)}
	}
	return out, nil
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("t%d", n)
	}
}

type fixture struct {
	graph *store.Graph
	geo   *fakeGeocoder
	elev  *fakeElevation
	orch  *Orchestrator
	a, b  model.Tower
	link  model.Link
}

func newFixture(t *testing.T, opts ...store.Option) *fixture {
	t.Helper()
	g := store.NewGraph(append([]store.Option{store.WithIDGenerator(sequentialIDs())}, opts...)...)
	a, err := g.AddTower(12.0, 77.0, 5)
	require.NoError(t, err)
	b, err := g.AddTower(12.1, 77.1, 5)
	require.NoError(t, err)
	link, err := g.AddLink(a.ID, b.ID)
	require.NoError(t, err)

	fg := newFakeGeocoder()
	fe := &fakeElevation{}
	o := New(g, fg, fe)
	t.Cleanup(o.Close)

	return &fixture{graph: g, geo: fg, elev: fe, orch: o, a: a, b: b, link: link}
}
