package enrich

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfplan/internal/fresnel"
	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/store"
)

// LinkSummary describes a link for display.
type LinkSummary struct {
	Key            model.LinkKey `json:"key"`
	From           model.Tower   `json:"from"`
	To             model.Tower   `json:"to"`
	FromName       string        `json:"from_name"`
	ToName         string        `json:"to_name"`
	DistanceKm     float64       `json:"distance_km"`
	FreqGHz        float64       `json:"freq"`
	FresnelRadiusM float64       `json:"fresnel_radius_m"`
	Label          string        `json:"label"`
	PolygonShown   bool          `json:"polygon_shown"`
	HasElevation   bool          `json:"has_elevation"`
}

// Describe builds the summary of a link from the graph's current state.
func Describe(g *store.Graph, key model.LinkKey) (LinkSummary, error) {
	if _, live := g.Link(key); !live {
		return LinkSummary{}, eris.Wrapf(ErrStaleLink, "link %s", key)
	}
	a, b, ok := g.Endpoints(key)
	if !ok {
		return LinkSummary{}, eris.Wrapf(ErrStaleLink, "link %s", key)
	}

	dist := geo.Distance(a.Point(), b.Point())
	freq := (a.FreqGHz + b.FreqGHz) / 2
	s := LinkSummary{
		Key:            key,
		From:           a,
		To:             b,
		FromName:       displayName(g, a),
		ToName:         displayName(g, b),
		DistanceKm:     dist,
		FreqGHz:        freq,
		FresnelRadiusM: fresnel.LegacyMidpointRadiusMeters(dist, freq),
	}
	_, s.PolygonShown = g.FresnelPolygon(key)
	_, s.HasElevation = g.ElevationProfile(key)
	s.Label = fmt.Sprintf("%s → %s · %.2f km @ %s GHz",
		s.FromName, s.ToName, dist, strconv.FormatFloat(freq, 'f', -1, 64))
	return s, nil
}

// LinkLabel returns the one-line summary "<from> → <to> · <d> km @ <f> GHz".
func LinkLabel(g *store.Graph, key model.LinkKey) (string, error) {
	s, err := Describe(g, key)
	if err != nil {
		return "", err
	}
	return s.Label, nil
}

func displayName(g *store.Graph, t model.Tower) string {
	if name, ok := g.PlaceName(t.CoordKey()); ok && name != "" {
		return name
	}
	return fmt.Sprintf("(%.3f, %.3f)", t.Lat, t.Lng)
}
