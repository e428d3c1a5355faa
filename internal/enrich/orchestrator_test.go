package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/store"
)

func TestEnrich_CommitsEverything(t *testing.T) {
	f := newFixture(t)
	key := f.link.Key()

	task, err := f.orch.Enrich(context.Background(), key)
	require.NoError(t, err)

	// The polygon is available before the lookups settle.
	poly, ok := f.graph.FresnelPolygon(key)
	require.True(t, ok)
	assert.True(t, poly.Closed())

	out := task.Wait()
	assert.True(t, out.PolygonCommitted)
	assert.True(t, out.ElevationCommitted)
	assert.NoError(t, out.ElevationErr)
	assert.ElementsMatch(t, []string{f.a.CoordKey(), f.b.CoordKey()}, out.PlacesCommitted)

	profile, ok := f.graph.ElevationProfile(key)
	require.True(t, ok)
	require.Len(t, profile, DefaultSegments+1)
	assert.Equal(t, 12.0, profile[0].Lat)
	assert.InDelta(t, 77.1, profile[DefaultSegments].Lng, 1e-9)

	name, ok := f.graph.PlaceName(f.a.CoordKey())
	require.True(t, ok)
	assert.Equal(t, "Place 12.000000,77.000000", name)

	stats := f.orch.Stats()
	assert.Equal(t, int64(1), stats.Tasks)
	assert.Equal(t, int64(1), stats.PolygonsCommitted)
	assert.Equal(t, int64(1), stats.ElevationsCommitted)
	assert.Equal(t, int64(2), stats.PlacesCommitted)
}

func TestEnrich_UsesAverageFrequency(t *testing.T) {
	g := store.NewGraph(store.WithIDGenerator(sequentialIDs()))
	a, err := g.AddTower(0, 0, 5)
	require.NoError(t, err)
	b, err := g.AddTower(0, 0.1, 5)
	require.NoError(t, err)
	_, err = g.AddLink(a.ID, b.ID)
	require.NoError(t, err)

	o := New(g, nil, nil, WithSamples(24))
	defer o.Close()

	task, err := o.Enrich(context.Background(), model.NewLinkKey(a.ID, b.ID))
	require.NoError(t, err)
	task.Wait()

	poly, ok := g.FresnelPolygon(model.NewLinkKey(a.ID, b.ID))
	require.True(t, ok)
	assert.Len(t, poly, 2*24+1)
}

func TestEnrich_StaleKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Enrich(context.Background(), model.NewLinkKey("t1", "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleLink))

	// Towers exist but no link between them.
	c, err := f.graph.AddTower(12.2, 77.2, 5)
	require.NoError(t, err)
	_, err = f.orch.Enrich(context.Background(), model.NewLinkKey(f.a.ID, c.ID))
	assert.True(t, errors.Is(err, ErrStaleLink))

	_, ok := f.graph.FresnelPolygon(model.NewLinkKey(f.a.ID, c.ID))
	assert.False(t, ok)
	assert.Equal(t, int64(2), f.orch.Stats().Stale)
}

func TestEnrich_LinkRemovedDuringElevationLookup(t *testing.T) {
	f := newFixture(t)
	f.elev.gate = make(chan struct{})
	f.elev.started = make(chan struct{}, 1)
	key := f.link.Key()

	task, err := f.orch.Enrich(context.Background(), key)
	require.NoError(t, err)

	<-f.elev.started
	require.True(t, f.graph.RemoveLink(f.a.ID, f.b.ID))
	close(f.elev.gate)

	out := task.Wait()
	assert.True(t, out.ElevationDropped)
	assert.False(t, out.ElevationCommitted)

	_, ok := f.graph.ElevationProfile(key)
	assert.False(t, ok)
	_, ok = f.graph.FresnelPolygon(key)
	assert.False(t, ok)
	assert.Equal(t, int64(1), f.orch.Stats().ElevationsDropped)
}

func TestEnrich_TowerRemovedDuringGeocode(t *testing.T) {
	f := newFixture(t, store.WithDeletePolicy(store.DeleteCascade))
	f.geo.gate = make(chan struct{})
	key := f.link.Key()

	task, err := f.orch.Enrich(context.Background(), key)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return f.geo.totalCalls() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, f.graph.RemoveTower(f.b.ID))
	close(f.geo.gate)

	out := task.Wait()
	assert.Contains(t, out.PlacesCommitted, f.a.CoordKey())
	assert.Contains(t, out.PlacesDropped, f.b.CoordKey())

	_, ok := f.graph.PlaceName(f.b.CoordKey())
	assert.False(t, ok)
	_, ok = f.graph.PlaceName(f.a.CoordKey())
	assert.True(t, ok)
}

func TestEnrich_ElevationFailureCachesNothing(t *testing.T) {
	f := newFixture(t)
	f.elev.err = errors.New("upstream down")
	key := f.link.Key()

	task, err := f.orch.Enrich(context.Background(), key)
	require.NoError(t, err)
	out := task.Wait()

	assert.Error(t, out.ElevationErr)
	_, ok := f.graph.ElevationProfile(key)
	assert.False(t, ok)
	_, ok = f.graph.FresnelPolygon(key)
	assert.True(t, ok)
	assert.Len(t, f.elev.requests, 1)
	assert.Equal(t, int64(1), f.orch.Stats().ElevationFailures)
}

func TestEnrich_GeocodeFailureCachesNothing(t *testing.T) {
	f := newFixture(t)
	f.geo.err = errors.New("unable to geocode")

	task, err := f.orch.Enrich(context.Background(), f.link.Key())
	require.NoError(t, err)
	out := task.Wait()

	assert.Len(t, out.PlaceErrs, 2)
	assert.Empty(t, f.graph.Snapshot().Places)
}

func TestEnrich_SkipsCachedPlaceNames(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.graph.SetPlaceName(f.a.CoordKey(), "Alpha"))

	task, err := f.orch.Enrich(context.Background(), f.link.Key())
	require.NoError(t, err)
	out := task.Wait()

	assert.Equal(t, []string{f.a.CoordKey()}, out.PlacesCached)
	assert.Equal(t, 0, f.geo.callCount(f.a.CoordKey()))
	assert.Equal(t, 1, f.geo.callCount(f.b.CoordKey()))

	name, _ := f.graph.PlaceName(f.a.CoordKey())
	assert.Equal(t, "Alpha", name)
}

func TestEnrich_ConcurrentTasksShareGeocodeLookups(t *testing.T) {
	f := newFixture(t)
	f.geo.gate = make(chan struct{})

	var links []model.Link
	for i := 0; i < 4; i++ {
		tw, err := f.graph.AddTower(12.5+float64(i)*0.1, 77.5, 5)
		require.NoError(t, err)
		l, err := f.graph.AddLink(f.a.ID, tw.ID)
		require.NoError(t, err)
		links = append(links, l)
	}

	var tasks []*Task
	for _, l := range links {
		task, err := f.orch.Enrich(context.Background(), l.Key())
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	close(f.geo.gate)
	for _, task := range tasks {
		task.Wait()
	}

	assert.Equal(t, 1, f.geo.callCount(f.a.CoordKey()))
	_, ok := f.graph.PlaceName(f.a.CoordKey())
	assert.True(t, ok)
}

func TestEnrich_Convergent(t *testing.T) {
	f := newFixture(t)
	key := f.link.Key()

	t1, err := f.orch.Enrich(context.Background(), key)
	require.NoError(t, err)
	t1.Wait()
	first := f.graph.Snapshot()

	t2, err := f.orch.Enrich(context.Background(), key)
	require.NoError(t, err)
	t2.Wait()
	second := f.graph.Snapshot()

	assert.Equal(t, first.Polygons, second.Polygons)
	assert.Equal(t, first.Elevations, second.Elevations)
	assert.Equal(t, first.Places, second.Places)
}

func TestEnrich_CallerCancellationDoesNotAbortLookups(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	task, err := f.orch.Enrich(ctx, f.link.Key())
	require.NoError(t, err)
	cancel()

	out := task.Wait()
	assert.True(t, out.ElevationCommitted)
}

func TestClose_CancelsLookups(t *testing.T) {
	f := newFixture(t)
	f.elev.gate = make(chan struct{})

	task, err := f.orch.Enrich(context.Background(), f.link.Key())
	require.NoError(t, err)

	f.orch.Close()
	out := task.Wait()
	assert.ErrorIs(t, out.ElevationErr, context.Canceled)
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	key := f.link.Key()

	shown, task, err := f.orch.Toggle(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, shown)
	require.NotNil(t, task)
	task.Wait()

	shown, task, err = f.orch.Toggle(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, shown)
	assert.Nil(t, task)
	_, ok := f.graph.FresnelPolygon(key)
	assert.False(t, ok)

	shown, task, err = f.orch.Toggle(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, shown)
	task.Wait()
}

func TestToggle_StaleLink(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.orch.Toggle(context.Background(), model.NewLinkKey("x", "y"))
	assert.True(t, errors.Is(err, ErrStaleLink))
}

func TestOnLinkCreated(t *testing.T) {
	f := newFixture(t)
	task, err := f.orch.OnLinkCreated(context.Background(), f.link)
	require.NoError(t, err)
	assert.True(t, task.Wait().PolygonCommitted)
}
