package store

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/rfplan/internal/model"
)

// SetFresnelPolygon stores a polygon under key without checking that the
// link exists.
func (g *Graph) SetFresnelPolygon(key model.LinkKey, poly model.Polygon) error {
	if !key.Valid() {
		return eris.Wrapf(model.ErrMalformedKey, "polygon key %q", key)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.polygons[key] = poly.Clone()
	return nil
}

// ClearFresnelPolygon drops the cached polygon for key, if any. It reports
// whether an entry was removed.
func (g *Graph) ClearFresnelPolygon(key model.LinkKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.polygons[key]; !ok {
		return false
	}
	delete(g.polygons, key)
	return true
}

// SetPlaceName stores a place name under a rounded coordinate key.
func (g *Graph) SetPlaceName(coordKey, name string) error {
	if !model.ValidCoordKey(coordKey) {
		return eris.Wrapf(model.ErrMalformedKey, "coordinate key %q", coordKey)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.places[coordKey] = name
	return nil
}

// SetElevationProfile stores an elevation profile under key.
func (g *Graph) SetElevationProfile(key model.LinkKey, samples []model.ElevationSample) error {
	if !key.Valid() {
		return eris.Wrapf(model.ErrMalformedKey, "elevation key %q", key)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.elevations[key] = model.CloneSamples(samples)
	return nil
}

// CommitFresnelPolygon stores poly only if the link still exists. It
// returns false when the write was dropped.
func (g *Graph) CommitFresnelPolygon(key model.LinkKey, poly model.Polygon) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, live := g.links[key]; !live {
		return false
	}
	g.polygons[key] = poly.Clone()
	return true
}

// CommitElevationProfile stores samples only if the link still exists.
func (g *Graph) CommitElevationProfile(key model.LinkKey, samples []model.ElevationSample) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, live := g.links[key]; !live {
		return false
	}
	g.elevations[key] = model.CloneSamples(samples)
	return true
}

// CommitPlaceName stores name only if some tower still sits at coordKey.
func (g *Graph) CommitPlaceName(coordKey, name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.coordInUseLocked(coordKey) {
		return false
	}
	g.places[coordKey] = name
	return true
}

// FresnelPolygon returns the cached polygon for key.
func (g *Graph) FresnelPolygon(key model.LinkKey) (model.Polygon, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.polygons[key]
	return p.Clone(), ok
}

// PlaceName returns the cached place name for a coordinate key.
func (g *Graph) PlaceName(coordKey string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.places[coordKey]
	return n, ok
}

// ElevationProfile returns the cached elevation profile for key.
func (g *Graph) ElevationProfile(key model.LinkKey) ([]model.ElevationSample, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.elevations[key]
	return model.CloneSamples(s), ok
}

// ReconcileDerivedCaches evicts every polygon and elevation entry whose key
// is not a current link and returns the number of evictions. Calling it
// again without a structural change evicts nothing.
func (g *Graph) ReconcileDerivedCaches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reconcileLocked()
}

func (g *Graph) reconcileLocked() int {
	evicted := 0
	for k := range g.polygons {
		if _, ok := g.links[k]; !ok {
			delete(g.polygons, k)
			evicted++
		}
	}
	for k := range g.elevations {
		if _, ok := g.links[k]; !ok {
			delete(g.elevations, k)
			evicted++
		}
	}
	return evicted
}
