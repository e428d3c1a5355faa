// Package elevation looks up terrain heights via an Open-Elevation
// compatible service.
package elevation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfplan/internal/resilience"
)

// DefaultBaseURL is the public Open-Elevation endpoint.
const DefaultBaseURL = "https://api.open-elevation.com"

const serviceName = "open-elevation"

// ErrMalformedResponse is returned when the answer does not carry one
// result per requested location.
var ErrMalformedResponse = eris.New("elevation: malformed response")

// Location is a point to look up.
type Location struct {
	Lat float64
	Lng float64
}

// Result is the terrain height at one location.
type Result struct {
	Lat        float64 `json:"latitude"`
	Lng        float64 `json:"longitude"`
	ElevationM float64 `json:"elevation"`
}

// Client looks up elevations for a batch of points.
type Client interface {
	// Lookup returns one result per location, in request order.
	Lookup(ctx context.Context, locs []Location) ([]Result, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at another Open-Elevation instance.
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = u
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreaker guards requests with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *client) {
		c.breaker = b
	}
}

type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	baseURL    string
}

// NewClient creates an elevation Client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupResponse struct {
	Results []Result `json:"results"`
}

// Lookup implements Client.
func (c *client) Lookup(ctx context.Context, locs []Location) ([]Result, error) {
	if len(locs) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "elevation: rate limit")
	}
	return resilience.Call(ctx, c.breaker, func(ctx context.Context) ([]Result, error) {
		return c.lookup(ctx, locs)
	})
}

func (c *client) lookup(ctx context.Context, locs []Location) ([]Result, error) {
	reqURL := strings.TrimRight(c.baseURL, "/") + "/api/v1/lookup?locations=" + encodeLocations(locs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &resilience.StatusError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: read body")
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "parse: %v", err)
	}
	if len(lr.Results) != len(locs) {
		return nil, eris.Wrapf(ErrMalformedResponse, "got %d results for %d locations", len(lr.Results), len(locs))
	}
	return lr.Results, nil
}

// encodeLocations renders "lat,lng|lat,lng|..." as the lookup endpoint
// expects. Commas and pipes are left unescaped.
func encodeLocations(locs []Location) string {
	var sb strings.Builder
	for i, l := range locs {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.FormatFloat(l.Lat, 'f', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(l.Lng, 'f', -1, 64))
	}
	return sb.String()
}
