package store

import "github.com/sells-group/rfplan/internal/model"

// Snapshot is a consistent, deep-copied view of the graph for renderers.
type Snapshot struct {
	Towers     []model.Tower                             `json:"towers"`
	Links      []model.Link                              `json:"links"`
	Polygons   map[model.LinkKey]model.Polygon           `json:"fresnel"`
	Elevations map[model.LinkKey][]model.ElevationSample `json:"elevations"`
	Places     map[string]string                         `json:"places"`
}

// Counts summarises the size of each collection.
type Counts struct {
	Towers     int `json:"towers"`
	Links      int `json:"links"`
	Polygons   int `json:"polygons"`
	Elevations int `json:"elevations"`
	Places     int `json:"places"`
}

// Snapshot copies every collection under a single read lock.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := Snapshot{
		Towers:     g.towersLocked(),
		Links:      g.linksLocked(),
		Polygons:   make(map[model.LinkKey]model.Polygon, len(g.polygons)),
		Elevations: make(map[model.LinkKey][]model.ElevationSample, len(g.elevations)),
		Places:     make(map[string]string, len(g.places)),
	}
	for k, p := range g.polygons {
		snap.Polygons[k] = p.Clone()
	}
	for k, s := range g.elevations {
		snap.Elevations[k] = model.CloneSamples(s)
	}
	for k, n := range g.places {
		snap.Places[k] = n
	}
	return snap
}

// Counts returns the size of each collection.
func (g *Graph) Counts() Counts {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Counts{
		Towers:     len(g.towers),
		Links:      len(g.links),
		Polygons:   len(g.polygons),
		Elevations: len(g.elevations),
		Places:     len(g.places),
	}
}
