package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"shelternav.org/internal/geo"
	"shelternav.org/internal/metrics"
	"shelternav.org/internal/models"
	"shelternav.org/internal/report"
	"shelternav.org/internal/routing"
	"shelternav.org/internal/shelters"
)

// RouteResult is the gateway's answer to a route request. Data is the
// provider payload, untouched.
type RouteResult struct {
	FromCache bool            `json:"fromCache"`
	Data      json.RawMessage `json:"data"`
}

// Gateway owns the shelter set and fronts the routing provider with a
// short-lived route cache.
type Gateway struct {
	Shelters *shelters.Store
	Provider routing.Provider
	Routes   RouteStore
	Logger   *slog.Logger

	now   func() time.Time
	group singleflight.Group
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces time.Now for cache freshness checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func New(store *shelters.Store, provider routing.Provider, routes RouteStore, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		Shelters: store,
		Provider: provider,
		Routes:   routes,
		Logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ListShelters returns a copy of the current shelter set.
func (g *Gateway) ListShelters() []models.Shelter {
	return g.Shelters.Snapshot()
}

// AddShelter validates shelter, adds it and returns the updated set.
func (g *Gateway) AddShelter(shelter models.Shelter) ([]models.Shelter, error) {
	updated, err := g.Shelters.Add(shelter)
	if err != nil {
		return nil, err
	}
	g.Logger.Info("Added shelter", "name", shelter.Name, "lat", shelter.Location.Lat, "lon", shelter.Location.Lon)
	return updated, nil
}

// RequestRoute returns a walking route between two "lon,lat" strings.
//
// A payload cached for the exact same pair of strings within the TTL is
// returned without calling the provider. Concurrent misses on one pair
// share a single provider call. Failed calls, and answers with no route
// geometry, are not cached.
func (g *Gateway) RequestRoute(ctx context.Context, start, end string) (RouteResult, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return RouteResult{}, &ValidationError{Msg: msgMissingEndpoints}
	}
	from, err := geo.ParseLonLat(start)
	if err != nil {
		return RouteResult{}, &ValidationError{Msg: msgInvalidCoordinates}
	}
	to, err := geo.ParseLonLat(end)
	if err != nil {
		return RouteResult{}, &ValidationError{Msg: msgInvalidCoordinates}
	}

	// Keyed on the strings as sent, after trimming; "77.5,12.9" and
	// "77.50,12.90" are different entries.
	key := start + ";" + end
	if payload, ok := g.Routes.Get(key, g.now()); ok {
		metrics.RouteRequests.WithLabelValues("cache").Inc()
		return RouteResult{FromCache: true, Data: json.RawMessage(payload)}, nil
	}

	// The shared call ignores the caller's cancellation.
	ch := g.group.DoChan(key, func() (interface{}, error) {
		payload, err := g.Provider.Directions(context.WithoutCancel(ctx), from, to)
		if err != nil {
			return nil, err
		}
		// A payload without route geometry is passed on but not cached.
		if _, err := routing.ParsePoints(payload); err == nil {
			g.Routes.Set(key, payload, g.now())
		} else {
			g.Logger.Warn("Not caching route without geometry", "provider", g.Provider.Name(), "error", err)
		}
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return RouteResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			g.recordProviderError(res.Err, start, end)
			return RouteResult{}, res.Err
		}
		metrics.RouteRequests.WithLabelValues("provider").Inc()
		return RouteResult{FromCache: false, Data: json.RawMessage(res.Val.([]byte))}, nil
	}
}

// Route fetches a route between two positions and extracts its polyline.
// It is the in-process route requester for watch sessions.
func (g *Gateway) Route(ctx context.Context, start, end models.Position) (models.Route, error) {
	result, err := g.RequestRoute(ctx, geo.FormatLonLat(start), geo.FormatLonLat(end))
	if err != nil {
		return models.Route{}, err
	}

	points, err := routing.ParsePoints(result.Data)
	if err != nil {
		return models.Route{}, fmt.Errorf("failed to read route from %s: %w", g.Provider.Name(), err)
	}
	return models.Route{Points: points, FromCache: result.FromCache, Payload: result.Data}, nil
}

func (g *Gateway) recordProviderError(err error, start, end string) {
	var (
		upstream      *routing.UpstreamError
		configuration *routing.ConfigurationError
	)
	kind := "transient"
	switch {
	case errors.As(err, &configuration):
		kind = "configuration"
	case errors.As(err, &upstream):
		kind = "upstream"
	}
	metrics.ProviderErrors.WithLabelValues(g.Provider.Name(), kind).Inc()

	// A provider refusing a route is an answer, not a fault.
	if kind == "upstream" {
		g.Logger.Info("Provider rejected route", "provider", g.Provider.Name(), "status", upstream.StatusCode, "start", start, "end", end)
		return
	}
	g.Logger.Error("Route request failed", "provider", g.Provider.Name(), "kind", kind, "error", err)
	report.ReportProviderError(err, g.Provider.Name(), start, end)
}
