package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/config"
	"github.com/sells-group/rfplan/internal/enrich"
	"github.com/sells-group/rfplan/internal/monitoring"
	"github.com/sells-group/rfplan/internal/placement"
	"github.com/sells-group/rfplan/internal/resilience"
	"github.com/sells-group/rfplan/internal/store"
	"github.com/sells-group/rfplan/pkg/elevation"
	"github.com/sells-group/rfplan/pkg/geocode"
)

// appEnv holds the graph and every component wired around it.
type appEnv struct {
	Graph        *store.Graph
	Geocoder     geocode.Client
	Elevation    elevation.Client
	Breakers     []*resilience.Breaker
	Orchestrator *enrich.Orchestrator
	Gate         *placement.Gate
	Collector    *monitoring.Collector
	Metrics      *monitoring.Exporter
}

// Close cancels in-flight enrichment.
func (e *appEnv) Close() {
	if e.Orchestrator != nil {
		e.Orchestrator.Close()
	}
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// initApp builds the application from configuration. Callers should defer
// env.Close().
func initApp(c *config.Config) (*appEnv, error) {
	breakerCfg := resilience.BreakerConfig{
		FailureThreshold: c.Breaker.FailureThreshold,
		Cooldown:         secs(c.Breaker.ResetTimeoutSecs),
	}
	geoBreaker := resilience.NewBreaker("nominatim", breakerCfg)
	elevBreaker := resilience.NewBreaker("open-elevation", breakerCfg)

	graph := store.NewGraph(store.WithDeletePolicy(store.ParseDeletePolicy(c.Graph.DeletePolicy)))

	gc := geocode.NewClient(
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithUserAgent(c.Geocode.UserAgent),
		geocode.WithLanguage(c.Geocode.Language),
		geocode.WithRateLimit(c.Geocode.RateLimit),
		geocode.WithHTTPClient(&http.Client{Timeout: secs(c.Geocode.TimeoutSecs)}),
		geocode.WithBreaker(geoBreaker),
	)
	ec := elevation.NewClient(
		elevation.WithBaseURL(c.Elevation.BaseURL),
		elevation.WithHTTPClient(&http.Client{Timeout: secs(c.Elevation.TimeoutSecs)}),
		elevation.WithBreaker(elevBreaker),
	)

	orch := enrich.New(graph, gc, ec,
		enrich.WithSegments(c.Elevation.Segments),
		enrich.WithSamples(c.Fresnel.Samples),
	)
	gate := placement.NewGate(graph, gc,
		placement.WithTimeout(secs(c.Placement.TimeoutSecs)),
		placement.WithDefaultFrequency(c.Placement.DefaultFreqGHz),
	)

	collector := monitoring.NewCollector(graph, orch, geoBreaker, elevBreaker)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	exporter, err := monitoring.NewExporter(reg, collector)
	if err != nil {
		orch.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	zap.L().Debug("app initialized",
		zap.String("delete_policy", string(graph.DeletePolicy())),
		zap.String("geocode_base_url", c.Geocode.BaseURL),
		zap.String("elevation_base_url", c.Elevation.BaseURL),
	)

	return &appEnv{
		Graph:        graph,
		Geocoder:     gc,
		Elevation:    ec,
		Breakers:     []*resilience.Breaker{geoBreaker, elevBreaker},
		Orchestrator: orch,
		Gate:         gate,
		Collector:    collector,
		Metrics:      exporter,
	}, nil
}
