package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	"shelternav.org/internal/models"
)

// earthRadiusInMeters represents the mean radius of the Earth in meters.
//
// This value (6,371,000 meters) is defined as the Earth's volumetric mean radius,
// which is commonly used for general geospatial calculations and spherical approximations.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusInMeters = 6371000

// HaversineDistance returns the great-circle distance in meters between two
// points given in decimal degrees.
//
// s2.LatLng.Distance computes the central angle with the haversine formula,
// so the result is symmetric and zero for identical points.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusInMeters
}

// Distance is HaversineDistance for two positions.
func Distance(a, b models.Position) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// IsValidLatLon returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees. NaN and infinities are rejected.
// (0,0) is accepted: a position fix in the Gulf of Guinea is still a position.
func IsValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// IsValidPosition is IsValidLatLon for a position.
func IsValidPosition(p models.Position) bool {
	return IsValidLatLon(p.Lat, p.Lon)
}

// ParseLonLat parses a "lon,lat" pair, the order routing providers use.
func ParseLonLat(s string) (models.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Position{}, fmt.Errorf("expected lon,lat, got %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	if !IsValidLatLon(lat, lon) {
		return models.Position{}, fmt.Errorf("coordinates out of range in %q", s)
	}
	return models.Position{Lat: lat, Lon: lon}, nil
}

// FormatLonLat renders a position as "lon,lat".
func FormatLonLat(p models.Position) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}
