package models

import (
	"encoding/json"
	"time"
)

// Position is a point on the Earth's surface in decimal degrees.
// Latitude comes first internally; the lon,lat order used by routing
// providers is confined to the string and GeoJSON conversions.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Shelter is a named point of safety with a fixed location.
type Shelter struct {
	Name     string   `json:"name"`
	Location Position `json:"location"`
}

// NewShelter builds a Shelter from a name and a lat/lon pair.
func NewShelter(name string, lat, lon float64) Shelter {
	return Shelter{Name: name, Location: Position{Lat: lat, Lon: lon}}
}

// NearestResult is the shelter closest to a position and its distance in meters.
type NearestResult struct {
	Shelter        Shelter `json:"shelter"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Route is a walking path from a start position to a shelter.
//
// Points run from start to end. Payload keeps the provider's response
// untouched so callers that understand a given provider can read more
// than the polyline.
type Route struct {
	Points    []Position      `json:"points"`
	FromCache bool            `json:"fromCache"`
	Payload   json.RawMessage `json:"-"`
}

// ThrottleState records when a route request was last permitted.
// The zero time means no request has been permitted yet.
type ThrottleState struct {
	LastPermitted time.Time
}

// Never reports whether no request has been permitted yet.
func (s ThrottleState) Never() bool {
	return s.LastPermitted.IsZero()
}
