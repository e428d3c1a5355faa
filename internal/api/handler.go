// Package api exposes the tower/link graph over a JSON HTTP API for the map
// front end.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/enrich"
	"github.com/sells-group/rfplan/internal/monitoring"
	"github.com/sells-group/rfplan/internal/placement"
	"github.com/sells-group/rfplan/internal/store"
)

// DefaultRequestTimeout bounds every API request except place-name
// prefetch.
const DefaultRequestTimeout = 30 * time.Second

// Handler serves the API.
type Handler struct {
	graph     *store.Graph
	gate      *placement.Gate
	orch      *enrich.Orchestrator
	collector *monitoring.Collector
	metrics   *monitoring.Exporter
	timeout   time.Duration
	origins   []string
	log       *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithAllowedOrigins sets the CORS allowed origins.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.origins = origins
	}
}

// WithCollector enables the stats endpoint.
func WithCollector(c *monitoring.Collector) Option {
	return func(h *Handler) {
		h.collector = c
	}
}

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(e *monitoring.Exporter) Option {
	return func(h *Handler) {
		h.metrics = e
	}
}

// WithRequestTimeout sets the per-request deadline. Place-name prefetch is
// exempt; it runs until every lookup settles.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

// NewHandler creates a Handler.
func NewHandler(graph *store.Graph, gate *placement.Gate, orch *enrich.Orchestrator, opts ...Option) *Handler {
	h := &Handler{
		graph:   graph,
		gate:    gate,
		orch:    orch,
		origins: []string{"*"},
		timeout: DefaultRequestTimeout,
		log:     zap.L().With(zap.String("component", "api")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the HTTP routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(h.timeout))

			r.Get("/snapshot", h.handleSnapshot)
			r.Get("/fresnel.geojson", h.handleFresnelGeoJSON)
			r.Get("/stats", h.handleStats)

			r.Route("/towers", func(r chi.Router) {
				r.Get("/", h.handleListTowers)
				r.Post("/", h.handlePlaceTower)
				r.Patch("/{id}", h.handleUpdateTower)
				r.Delete("/{id}", h.handleDeleteTower)
			})

			r.Route("/links", func(r chi.Router) {
				r.Get("/", h.handleListLinks)
				r.Post("/", h.handleCreateLink)
				r.Get("/{key}", h.handleGetLink)
				r.Delete("/{key}", h.handleDeleteLink)
				r.Post("/{key}/toggle", h.handleToggleLink)
			})
		})

		// Blocks for roughly one second per uncached coordinate at the
		// default geocoder rate, so it sits outside the request timeout.
		r.Post("/places/prefetch", h.handlePrefetchPlaces)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	if h.collector == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"graph": h.graph.Counts()})
		return
	}
	h.writeJSON(w, http.StatusOK, h.collector.Collect())
}

type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("api: encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	h.writeJSON(w, status, errorBody{Error: code, Message: message, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
