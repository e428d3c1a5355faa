// Package monitoring reports graph and enrichment health and runs a
// periodic consistency sweep.
package monitoring

import (
	"sort"
	"time"

	"github.com/sells-group/rfplan/internal/enrich"
	"github.com/sells-group/rfplan/internal/resilience"
	"github.com/sells-group/rfplan/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	Graph      store.Counts `json:"graph"`
	Enrichment enrich.Stats `json:"enrichment"`

	// Lookups is the number of settled external lookups; the failure rate
	// is taken over them.
	Lookups           int64   `json:"lookups"`
	LookupFailures    int64   `json:"lookup_failures"`
	LookupFailureRate float64 `json:"lookup_failure_rate"`

	Breakers map[string]string `json:"breakers"`

	CollectedAt time.Time `json:"collected_at"`
}

// GraphCounter is implemented by *store.Graph.
type GraphCounter interface {
	Counts() store.Counts
}

// EnrichStats is implemented by *enrich.Orchestrator.
type EnrichStats interface {
	Stats() enrich.Stats
}

// Collector gathers metrics from the graph, the orchestrator and the
// provider breakers.
type Collector struct {
	graph    GraphCounter
	enrich   EnrichStats
	breakers []*resilience.Breaker
}

// NewCollector creates a new metrics collector. enrichStats may be nil.
func NewCollector(graph GraphCounter, enrichStats EnrichStats, breakers ...*resilience.Breaker) *Collector {
	return &Collector{graph: graph, enrich: enrichStats, breakers: breakers}
}

// Collect gathers a snapshot of the current metrics.
func (c *Collector) Collect() *MetricsSnapshot {
	snap := &MetricsSnapshot{
		Graph:       c.graph.Counts(),
		Breakers:    make(map[string]string, len(c.breakers)),
		CollectedAt: time.Now().UTC(),
	}

	if c.enrich != nil {
		s := c.enrich.Stats()
		snap.Enrichment = s
		snap.LookupFailures = s.ElevationFailures + s.PlaceFailures
		snap.Lookups = snap.LookupFailures +
			s.ElevationsCommitted + s.ElevationsDropped +
			s.PlacesCommitted + s.PlacesDropped
		if snap.Lookups > 0 {
			snap.LookupFailureRate = float64(snap.LookupFailures) / float64(snap.Lookups)
		}
	}

	for _, b := range c.breakers {
		if b != nil {
			snap.Breakers[b.Name()] = b.State().String()
		}
	}
	return snap
}

// OpenBreakers returns the names of breakers that are not closed, sorted.
func (s *MetricsSnapshot) OpenBreakers() []string {
	var out []string
	for name, state := range s.Breakers {
		if state != resilience.Closed.String() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
