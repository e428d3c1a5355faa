package store

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
)

// AddTower creates a tower with a fresh id. It has no geometry side
// effects.
func (g *Graph) AddTower(lat, lng, freqGHz float64) (model.Tower, error) {
	if !(geo.Point{Lat: lat, Lng: lng}).Valid() {
		return model.Tower{}, eris.Wrapf(ErrInvalidTower, "coordinate %v,%v out of range", lat, lng)
	}
	if !model.ValidFrequency(freqGHz) {
		return model.Tower{}, eris.Wrapf(ErrInvalidTower, "frequency %v GHz", freqGHz)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.newID()
	for g.towers[id] != nil {
		id = g.newID()
	}

	t := &model.Tower{ID: id, Lat: lat, Lng: lng, FreqGHz: freqGHz}
	g.towers[id] = t
	g.towerOrder = append(g.towerOrder, id)
	return *t, nil
}

// RemoveTower deletes a tower. Under DeleteReject a tower with links fails
// with ErrConstraintViolation; under DeleteCascade its links go with it.
// Links, polygons and elevation profiles keyed off removed links are
// purged, as is the tower's place name when no other tower shares its
// coordinate key.
func (g *Graph) RemoveTower(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.towers[id]
	if !ok {
		return eris.Wrapf(ErrTowerNotFound, "tower %q", id)
	}

	var attached []model.LinkKey
	for _, k := range g.linkOrder {
		if k.Has(id) {
			attached = append(attached, k)
		}
	}
	if len(attached) > 0 && g.deletePolicy != DeleteCascade {
		return eris.Wrapf(ErrConstraintViolation, "tower %q has %d link(s)", id, len(attached))
	}

	for _, k := range attached {
		g.removeLinkLocked(k)
	}

	delete(g.towers, id)
	g.towerOrder = removeString(g.towerOrder, id)

	coordKey := t.CoordKey()
	if !g.coordInUseLocked(coordKey) {
		delete(g.places, coordKey)
	}

	g.reconcileLocked()
	return nil
}

// UpdateTowerFrequency changes a tower's frequency in place. Existing links
// and cached polygons are left alone; they refresh when the link is
// re-selected.
func (g *Graph) UpdateTowerFrequency(id string, freqGHz float64) (model.Tower, error) {
	if !model.ValidFrequency(freqGHz) {
		return model.Tower{}, eris.Wrapf(ErrInvalidTower, "frequency %v GHz", freqGHz)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.towers[id]
	if !ok {
		return model.Tower{}, eris.Wrapf(ErrTowerNotFound, "tower %q", id)
	}
	t.FreqGHz = freqGHz
	return *t, nil
}

// Tower returns the tower with the given id.
func (g *Graph) Tower(id string) (model.Tower, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, ok := g.towers[id]
	if !ok {
		return model.Tower{}, false
	}
	return *t, true
}

// Towers returns all towers in placement order.
func (g *Graph) Towers() []model.Tower {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.towersLocked()
}

func (g *Graph) towersLocked() []model.Tower {
	out := make([]model.Tower, 0, len(g.towerOrder))
	for _, id := range g.towerOrder {
		out = append(out, *g.towers[id])
	}
	return out
}

// coordInUseLocked reports whether any tower rounds to coordKey.
func (g *Graph) coordInUseLocked(coordKey string) bool {
	for _, t := range g.towers {
		if t.CoordKey() == coordKey {
			return true
		}
	}
	return false
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
