package routing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"shelternav.org/internal/geo"
	"shelternav.org/internal/models"
)

const (
	osrmBaseURL = "https://router.project-osrm.org"
	osrmProfile = "foot"
)

// OSRM calls an OSRM route service:
//
//	GET {base}/route/v1/{profile}/lon,lat;lon,lat?overview=full&geometries=geojson
//
// It needs no credentials.
type OSRM struct {
	baseURL string
	profile string
	client  *http.Client
}

func NewOSRM(baseURL, profile string, client *http.Client) *OSRM {
	if baseURL == "" {
		baseURL = osrmBaseURL
	}
	if profile == "" {
		profile = osrmProfile
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		client:  client,
	}
}

func (o *OSRM) Name() string {
	return "osrm"
}

func (o *OSRM) Directions(ctx context.Context, start, end models.Position) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
		o.baseURL, o.profile, geo.FormatLonLat(start), geo.FormatLonLat(end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return fetch(o.client, o.Name(), req)
}
