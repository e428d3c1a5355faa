package store

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/rfplan/internal/model"
)

// AddLink connects two towers. Checks run in order: self link, unknown
// endpoint, frequency mismatch, duplicate (in either direction). The
// polygon cache is not touched; enrichment populates it.
func (g *Graph) AddLink(fromID, toID string) (model.Link, error) {
	if fromID == toID {
		return model.Link{}, eris.Wrapf(ErrSelfLink, "tower %q", fromID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	from, ok := g.towers[fromID]
	if !ok {
		return model.Link{}, eris.Wrapf(ErrTowerNotFound, "tower %q", fromID)
	}
	to, ok := g.towers[toID]
	if !ok {
		return model.Link{}, eris.Wrapf(ErrTowerNotFound, "tower %q", toID)
	}

	if from.FreqGHz != to.FreqGHz {
		return model.Link{}, eris.Wrapf(ErrFrequencyMismatch, "%v GHz vs %v GHz", from.FreqGHz, to.FreqGHz)
	}

	key := model.NewLinkKey(fromID, toID)
	if _, exists := g.links[key]; exists {
		return model.Link{}, eris.Wrapf(ErrDuplicateLink, "link %s", key)
	}

	l := model.Link{FromID: fromID, ToID: toID}
	g.links[key] = l
	g.linkOrder = append(g.linkOrder, key)
	return l, nil
}

// RemoveLink removes the link between two towers in either direction. It
// returns false when no such link exists.
func (g *Graph) RemoveLink(fromID, toID string) bool {
	return g.RemoveLinkByKey(model.NewLinkKey(fromID, toID))
}

// RemoveLinkByKey is RemoveLink for a canonical key.
func (g *Graph) RemoveLinkByKey(key model.LinkKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.links[key]; !ok {
		return false
	}
	g.removeLinkLocked(key)
	g.reconcileLocked()
	return true
}

func (g *Graph) removeLinkLocked(key model.LinkKey) {
	delete(g.links, key)
	delete(g.polygons, key)
	delete(g.elevations, key)
	for i, k := range g.linkOrder {
		if k == key {
			g.linkOrder = append(g.linkOrder[:i], g.linkOrder[i+1:]...)
			break
		}
	}
}

// Link returns the link stored under key.
func (g *Graph) Link(key model.LinkKey) (model.Link, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.links[key]
	return l, ok
}

// HasLink reports whether a link exists between the two towers.
func (g *Graph) HasLink(a, b string) bool {
	_, ok := g.Link(model.NewLinkKey(a, b))
	return ok
}

// Links returns all links in creation order.
func (g *Graph) Links() []model.Link {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.linksLocked()
}

func (g *Graph) linksLocked() []model.Link {
	out := make([]model.Link, 0, len(g.linkOrder))
	for _, k := range g.linkOrder {
		out = append(out, g.links[k])
	}
	return out
}

// Endpoints resolves both towers of a link key. ok is false when either
// tower is gone.
func (g *Graph) Endpoints(key model.LinkKey) (a, b model.Tower, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ta, okA := g.towers[key.Lo]
	tb, okB := g.towers[key.Hi]
	if !okA || !okB {
		return model.Tower{}, model.Tower{}, false
	}
	// Keep the user's from→to order when the link exists.
	if l, exists := g.links[key]; exists && l.FromID == key.Hi {
		return *tb, *ta, true
	}
	return *ta, *tb, true
}
