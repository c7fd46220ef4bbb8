package routing

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"shelternav.org/internal/config"
	"shelternav.org/internal/models"
)

// maxPayloadBytes caps how much of a provider response is read.
const maxPayloadBytes = 8 << 20

// Provider is an external walking-directions service.
type Provider interface {
	Name() string
	// Directions returns the provider's raw JSON answer for a walking
	// route from start to end.
	Directions(ctx context.Context, start, end models.Position) ([]byte, error)
}

// New builds the provider named in cfg.
func New(cfg config.RoutingConfig, client *http.Client) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouteService:
		return NewOpenRouteService(cfg.BaseURL, cfg.Profile, cfg.APIKey, client), nil
	case config.ProviderOSRM:
		return NewOSRM(cfg.BaseURL, cfg.Profile, client), nil
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
	}
}

// fetch sends req and classifies the outcome into the routing error types.
func fetch(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransientError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &TransientError{Provider: provider, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Body: body}
	}

	if !json.Valid(body) {
		return nil, &TransientError{Provider: provider, Err: fmt.Errorf("response is not valid JSON")}
	}
	return body, nil
}
