package fresnel

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/rfplan/internal/geo"
	"github.com/sells-group/rfplan/internal/model"
)

// ToGeom converts a polygon ring to a go-geom Polygon in lng/lat (XY)
// order with SRID 4326.
func ToGeom(p model.Polygon) (*geom.Polygon, error) {
	if !p.Closed() || len(p) < 4 {
		return nil, eris.New("fresnel: polygon ring is not closed")
	}
	flat := make([]float64, 0, len(p)*2)
	for _, v := range p {
		flat = append(flat, v.Lng, v.Lat)
	}
	poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
	poly.SetSRID(4326)
	return poly, nil
}

// Centerline returns the straight line between the two endpoints.
func Centerline(a, b geo.Point) *geom.LineString {
	return geom.NewLineStringFlat(geom.XY, []float64{a.Lng, a.Lat, b.Lng, b.Lat})
}

// PolygonFeature wraps a Fresnel polygon as a GeoJSON feature.
func PolygonFeature(p model.Polygon, props map[string]interface{}) (*geojson.Feature, error) {
	g, err := ToGeom(p)
	if err != nil {
		return nil, err
	}
	return &geojson.Feature{Geometry: g, Properties: props}, nil
}

// LinkFeatures returns the centreline and, when p is non-empty, the Fresnel
// envelope features for a link.
func LinkFeatures(key model.LinkKey, a, b geo.Point, freqGHz float64, p model.Polygon) ([]*geojson.Feature, error) {
	distKm := geo.Distance(a, b)
	line := &geojson.Feature{
		Geometry: Centerline(a, b),
		Properties: map[string]interface{}{
			"kind":        "link",
			"link":        key.String(),
			"distance_km": distKm,
			"freq_ghz":    freqGHz,
		},
	}
	if len(p) == 0 {
		return []*geojson.Feature{line}, nil
	}
	zone, err := PolygonFeature(p, map[string]interface{}{
		"kind":                  "fresnel",
		"link":                  key.String(),
		"max_radius_m":          MidpointRadiusMeters(distKm, freqGHz),
		"wavelength_m":          WavelengthMeters(freqGHz),
		"boundary_vertex_count": len(p),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fresnel: encode link %s", key)
	}
	return []*geojson.Feature{line, zone}, nil
}

// MarshalCollection encodes features as a GeoJSON FeatureCollection.
func MarshalCollection(features []*geojson.Feature) ([]byte, error) {
	if features == nil {
		features = []*geojson.Feature{}
	}
	fc := &geojson.FeatureCollection{Features: features}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "fresnel: marshal feature collection")
	}
	return data, nil
}
