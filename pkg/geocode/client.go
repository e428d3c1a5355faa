// Package geocode reverse-geocodes coordinates via a Nominatim-compatible
// service.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfplan/internal/resilience"
)

// DefaultBaseURL is the public Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrUnableToGeocode is returned when the provider answers with an error
// field instead of a place.
var ErrUnableToGeocode = eris.New("geocode: provider reported no result")

// Client reverse-geocodes a coordinate.
type Client interface {
	// Reverse returns the place at lat/lng. Any provider-side failure,
	// including an answer carrying an "error" field, is returned as an error.
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

// Place is a reverse-geocoding answer.
type Place struct {
	DisplayName string            `json:"display_name"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Address     map[string]string `json:"address,omitempty"`
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit. Nominatim's usage
// policy allows at most one request per second.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithLanguage sets the Accept-Language header.
func WithLanguage(lang string) Option {
	return func(g *geocoder) {
		g.language = lang
	}
}

// WithBreaker guards requests with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *geocoder) {
		g.breaker = b
	}
}

type geocoder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	baseURL    string
	userAgent  string
	language   string
}

// NewClient creates a new reverse-geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		baseURL:    DefaultBaseURL,
		userAgent:  "rfplan/1.0",
		language:   "en",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
