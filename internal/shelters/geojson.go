package shelters

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"shelternav.org/internal/models"
)

// ToFeatureCollection renders shelters as GeoJSON Point features with a
// "name" property. The collection carries a bbox when it is not empty.
func ToFeatureCollection(shelters []models.Shelter) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	points := make(orb.MultiPoint, 0, len(shelters))

	for _, s := range shelters {
		p := orb.Point{s.Location.Lon, s.Location.Lat}
		f := geojson.NewFeature(p)
		f.Properties["name"] = s.Name
		fc.Append(f)
		points = append(points, p)
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	return fc
}

// FromFeatureCollection reads shelters back from Point features. Features
// with another geometry or without a name are rejected.
func FromFeatureCollection(fc *geojson.FeatureCollection) ([]models.Shelter, error) {
	out := make([]models.Shelter, 0, len(fc.Features))
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: expected Point geometry, got %T", i, f.Geometry)
		}
		shelter := models.NewShelter(f.Properties.MustString("name", ""), p.Lat(), p.Lon())
		if err := Validate(shelter); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, shelter)
	}
	return out, nil
}
