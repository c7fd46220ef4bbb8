package routing

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"shelternav.org/internal/models"
)

var ErrNoRouteGeometry = errors.New("route payload has no line geometry")

type payloadShape struct {
	Type   string `json:"type"`
	Routes []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
}

// ParsePoints extracts the route polyline from a provider payload.
//
// Two shapes are understood: an openrouteservice GeoJSON FeatureCollection,
// where the first LineString feature is the route, and an OSRM response
// requested with geometries=geojson, where routes[0].geometry is.
// Coordinates come back as positions, converted from GeoJSON [lon, lat].
func ParsePoints(payload []byte) ([]models.Position, error) {
	var shape payloadShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil, fmt.Errorf("failed to decode route payload: %w", err)
	}

	switch {
	case shape.Type == "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode route features: %w", err)
		}
		for _, f := range fc.Features {
			if ls, ok := f.Geometry.(orb.LineString); ok {
				return toPositions(ls), nil
			}
		}
	case len(shape.Routes) > 0:
		g, err := geojson.UnmarshalGeometry(shape.Routes[0].Geometry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode route geometry: %w", err)
		}
		if ls, ok := g.Geometry().(orb.LineString); ok {
			return toPositions(ls), nil
		}
	}
	return nil, ErrNoRouteGeometry
}

func toPositions(ls orb.LineString) []models.Position {
	points := make([]models.Position, 0, len(ls))
	for _, p := range ls {
		points = append(points, models.Position{Lat: p.Lat(), Lon: p.Lon()})
	}
	return points
}
