package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rfplan/internal/resilience"
)

var (
	graphObjectsDesc = prometheus.NewDesc("rfplan_graph_objects",
		"Current number of objects in the tower/link graph, by kind.", []string{"kind"}, nil)
	enrichEventsDesc = prometheus.NewDesc("rfplan_enrichment_events_total",
		"Enrichment results since startup, by event.", []string{"event"}, nil)
	lookupFailureRateDesc = prometheus.NewDesc("rfplan_lookup_failure_rate",
		"Share of settled external lookups that failed.", nil, nil)
	breakerOpenDesc = prometheus.NewDesc("rfplan_breaker_open",
		"1 when the provider circuit breaker is not closed.", []string{"breaker"}, nil)
)

// Exporter publishes Collector snapshots and HTTP request metrics to
// Prometheus.
type Exporter struct {
	collector *Collector
	gatherer  prometheus.Gatherer

	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
}

// NewExporter registers the exporter against reg, defaulting to the global
// registry when nil.
func NewExporter(reg prometheus.Registerer, c *Collector) (*Exporter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	e := &Exporter{
		collector: c,
		gatherer:  gatherer,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfplan_http_requests_total",
			Help: "Handled API requests, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rfplan_http_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"route", "method"}),
	}

	for _, col := range []prometheus.Collector{e, e.Requests, e.Durations} {
		if err := reg.Register(col); err != nil {
			return nil, eris.Wrap(err, "monitoring: register prometheus collector")
		}
	}
	return e, nil
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- graphObjectsDesc
	ch <- enrichEventsDesc
	ch <- lookupFailureRateDesc
	ch <- breakerOpenDesc
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e.collector == nil {
		return
	}
	snap := e.collector.Collect()

	gauge := func(v int, kind string) {
		ch <- prometheus.MustNewConstMetric(graphObjectsDesc, prometheus.GaugeValue, float64(v), kind)
	}
	gauge(snap.Graph.Towers, "towers")
	gauge(snap.Graph.Links, "links")
	gauge(snap.Graph.Polygons, "polygons")
	gauge(snap.Graph.Elevations, "elevations")
	gauge(snap.Graph.Places, "places")

	s := snap.Enrichment
	for event, v := range map[string]int64{
		"task":                s.Tasks,
		"stale":               s.Stale,
		"polygon_committed":   s.PolygonsCommitted,
		"elevation_committed": s.ElevationsCommitted,
		"elevation_dropped":   s.ElevationsDropped,
		"elevation_failed":    s.ElevationFailures,
		"place_committed":     s.PlacesCommitted,
		"place_dropped":       s.PlacesDropped,
		"place_failed":        s.PlaceFailures,
	} {
		ch <- prometheus.MustNewConstMetric(enrichEventsDesc, prometheus.CounterValue, float64(v), event)
	}

	ch <- prometheus.MustNewConstMetric(lookupFailureRateDesc, prometheus.GaugeValue, snap.LookupFailureRate)

	for name, state := range snap.Breakers {
		open := 0.0
		if state != resilience.Closed.String() {
			open = 1
		}
		ch <- prometheus.MustNewConstMetric(breakerOpenDesc, prometheus.GaugeValue, open, name)
	}
}

// Handler exposes the /metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations by chi route pattern.
func (e *Exporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		e.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		e.Durations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
