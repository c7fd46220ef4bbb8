// Package client talks to a running shelternav gateway over HTTP.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
	"shelternav.org/internal/gateway"
	"shelternav.org/internal/geo"
	"shelternav.org/internal/models"
	"shelternav.org/internal/routing"
	"shelternav.org/internal/shelters"
)

const maxResponseBytes = 8 << 20

// APIError is a non-2xx answer from the gateway. Message holds the
// response's "error" field: a string, or raw JSON forwarded from the
// routing provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

// Client calls the gateway's /api endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListShelters fetches the gateway's shelter set.
func (c *Client) ListShelters(ctx context.Context) ([]models.Shelter, error) {
	body, err := c.get(ctx, "/api/shelters", nil)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode shelters: %w", err)
	}
	return shelters.FromFeatureCollection(fc)
}

// RequestRoute asks the gateway for a route between two "lon,lat" strings.
func (c *Client) RequestRoute(ctx context.Context, start, end string) (gateway.RouteResult, error) {
	body, err := c.get(ctx, "/api/route", url.Values{"start": {start}, "end": {end}})
	if err != nil {
		return gateway.RouteResult{}, err
	}

	var result gateway.RouteResult
	if err := json.Unmarshal(body, &result); err != nil {
		return gateway.RouteResult{}, fmt.Errorf("failed to decode route response: %w", err)
	}
	return result, nil
}

// Route implements watch.RouteRequester against the remote gateway.
func (c *Client) Route(ctx context.Context, start, end models.Position) (models.Route, error) {
	result, err := c.RequestRoute(ctx, geo.FormatLonLat(start), geo.FormatLonLat(end))
	if err != nil {
		return models.Route{}, err
	}

	points, err := routing.ParsePoints(result.Data)
	if err != nil {
		return models.Route{}, err
	}
	return models.Route{Points: points, FromCache: result.FromCache, Payload: result.Data}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts the "error" field of an error body, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil {
		return s
	}
	return string(payload.Error)
}
