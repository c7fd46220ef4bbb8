package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"shelternav.org/internal/geo"
	"shelternav.org/internal/models"
)

const (
	openRouteServiceBaseURL = "https://api.openrouteservice.org"
	openRouteServiceProfile = "foot-walking"
)

// OpenRouteService calls the openrouteservice directions API:
//
//	GET {base}/v2/directions/{profile}?start=lon,lat&end=lon,lat
//
// The answer is a GeoJSON FeatureCollection whose first feature is the
// route LineString.
type OpenRouteService struct {
	baseURL string
	profile string
	apiKey  string
	client  *http.Client
}

func NewOpenRouteService(baseURL, profile, apiKey string, client *http.Client) *OpenRouteService {
	if baseURL == "" {
		baseURL = openRouteServiceBaseURL
	}
	if profile == "" {
		profile = openRouteServiceProfile
	}
	return &OpenRouteService{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		apiKey:  apiKey,
		client:  client,
	}
}

func (o *OpenRouteService) Name() string {
	return "openrouteservice"
}

func (o *OpenRouteService) Directions(ctx context.Context, start, end models.Position) ([]byte, error) {
	if o.apiKey == "" {
		return nil, &ConfigurationError{Provider: o.Name(), Msg: "ORS_API_KEY not configured"}
	}

	q := url.Values{}
	q.Set("start", geo.FormatLonLat(start))
	q.Set("end", geo.FormatLonLat(end))
	endpoint := fmt.Sprintf("%s/v2/directions/%s?%s", o.baseURL, url.PathEscape(o.profile), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)

	return fetch(o.client, o.Name(), req)
}
