// Package store holds the authoritative in-memory tower/link graph together
// with its derived caches: Fresnel polygons, place names and elevation
// profiles. A Graph is the single shared mutable resource of the planner;
// every other component reads and writes graph state through it.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sells-group/rfplan/internal/model"
)

// DeletePolicy selects how RemoveTower treats a tower that still has links.
type DeletePolicy string

const (
	// DeleteReject refuses to remove a linked tower.
	DeleteReject DeletePolicy = "reject"
	// DeleteCascade removes the tower and every link that references it.
	DeleteCascade DeletePolicy = "cascade"
)

// ParseDeletePolicy maps a config string to a DeletePolicy. Unknown values
// fall back to DeleteReject.
func ParseDeletePolicy(s string) DeletePolicy {
	if DeletePolicy(s) == DeleteCascade {
		return DeleteCascade
	}
	return DeleteReject
}

// Option configures a Graph.
type Option func(*Graph)

// WithDeletePolicy sets the tower deletion policy.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(g *Graph) {
		g.deletePolicy = p
	}
}

// WithIDGenerator replaces the tower id generator (UUIDv4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// Graph is the tower/link model plus derived caches. All methods are safe
// for concurrent use; each mutation is applied atomically.
type Graph struct {
	mu sync.RWMutex

	towers     map[string]*model.Tower
	towerOrder []string

	links     map[model.LinkKey]model.Link
	linkOrder []model.LinkKey

	polygons   map[model.LinkKey]model.Polygon
	elevations map[model.LinkKey][]model.ElevationSample
	places     map[string]string

	deletePolicy DeletePolicy
	newID        func() string
}

// NewGraph returns an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		towers:       make(map[string]*model.Tower),
		links:        make(map[model.LinkKey]model.Link),
		polygons:     make(map[model.LinkKey]model.Polygon),
		elevations:   make(map[model.LinkKey][]model.ElevationSample),
		places:       make(map[string]string),
		deletePolicy: DeleteReject,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DeletePolicy returns the configured tower deletion policy.
func (g *Graph) DeletePolicy() DeletePolicy {
	return g.deletePolicy
}
