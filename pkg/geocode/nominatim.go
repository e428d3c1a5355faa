package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/resilience"
)

const serviceName = "nominatim"

// nominatimResponse is the jsonv2 reverse answer. Nominatim encodes
// coordinates as strings.
type nominatimResponse struct {
	Error       string            `json:"error"`
	DisplayName string            `json:"display_name"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Address     map[string]string `json:"address"`
}

// Reverse implements Client.
func (g *geocoder) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (*Place, error) {
		return g.reverse(ctx, lat, lng)
	})
}

func (g *geocoder) reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	reqURL := strings.TrimRight(g.baseURL, "/") + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("Accept", "application/json")
	if g.language != "" {
		req.Header.Set("Accept-Language", g.language)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &resilience.StatusError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var nr nominatimResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	if nr.Error != "" {
		zap.L().Debug("geocode: provider error",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.String("error", nr.Error),
		)
		return nil, eris.Wrapf(ErrUnableToGeocode, "%s", nr.Error)
	}

	place := &Place{
		DisplayName: nr.DisplayName,
		Category:    nr.Category,
		Type:        nr.Type,
		Address:     nr.Address,
		Lat:         lat,
		Lng:         lng,
	}
	// Nominatim snaps to the nearest object; keep the requested point when
	// the answer's coordinates are missing or unparsable.
	if v, err := strconv.ParseFloat(nr.Lat, 64); err == nil {
		place.Lat = v
	}
	if v, err := strconv.ParseFloat(nr.Lon, 64); err == nil {
		place.Lng = v
	}
	return place, nil
}
