package elevation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfplan/internal/resilience"
)

func newTestClient(srvURL string, opts ...Option) Client {
	c := NewClient(append([]Option{WithBaseURL(srvURL)}, opts...)...)
	c.(*client).limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestLookup_Success(t *testing.T) {
	var gotLocations string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/lookup", r.URL.Path)
		gotLocations = r.URL.Query().Get("locations")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results": [
			{"latitude": 12, "longitude": 77, "elevation": 880},
			{"latitude": 12.05, "longitude": 77.05, "elevation": 901.5}
		]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res, err := c.Lookup(context.Background(), []Location{{12, 77}, {12.05, 77.05}})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "12,77|12.05,77.05", gotLocations)
	assert.Equal(t, 880.0, res[0].ElevationM)
	assert.Equal(t, 901.5, res[1].ElevationM)
	assert.Equal(t, 77.05, res[1].Lng)
}

func TestLookup_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results": [{"latitude": 1, "longitude": 1, "elevation": 3}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Lookup(context.Background(), []Location{{1, 1}, {2, 2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestLookup_MissingResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Lookup(context.Background(), []Location{{1, 1}})
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestLookup_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Lookup(context.Background(), []Location{{1, 1}})
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestLookup_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Lookup(context.Background(), []Location{{1, 1}})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestLookup_Empty(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"))
	res, err := c.Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestLookup_TwentyOneSamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Query().Get("locations"), "|")
		items := make([]string, len(parts))
		for i := range parts {
			items[i] = fmt.Sprintf(`{"latitude":0,"longitude":0,"elevation":%d}`, i)
		}
		_, _ = io.WriteString(w, `{"results":[`+strings.Join(items, ",")+`]}`)
	}))
	defer srv.Close()

	locs := make([]Location, 21)
	c := newTestClient(srv.URL)
	res, err := c.Lookup(context.Background(), locs)
	require.NoError(t, err)
	assert.Len(t, res, 21)
	assert.Equal(t, 20.0, res[20].ElevationM)
}

func TestEncodeLocations(t *testing.T) {
	assert.Equal(t, "-33.5,151.25", encodeLocations([]Location{{-33.5, 151.25}}))
	assert.Equal(t, "", encodeLocations(nil))
}
