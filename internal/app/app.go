package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"shelternav.org/internal/config"
	"shelternav.org/internal/gateway"
	"shelternav.org/internal/routing"
	"shelternav.org/internal/shelters"
)

// Application holds the wired services behind the HTTP surface.
type Application struct {
	Config     *config.Config
	Gateway    *gateway.Gateway
	Shelters   *shelters.Service
	RouteCache *gateway.MemoryRouteStore
	Breaker    *routing.BreakerProvider
	Logger     *slog.Logger
	Version    string
}

// New creates and wires all dependencies for the Application.
//
// The shelter store starts empty; call Shelters.Load before serving.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, version string) (*Application, error) {
	provider, err := routing.New(cfg.Routing, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create routing provider: %w", err)
	}
	breaker := routing.WithBreaker(provider, routing.BreakerSettings{}, logger)

	store := shelters.NewStore(nil)
	routes := gateway.NewMemoryRouteStore(cfg.CacheTTL())

	return &Application{
		Config:     cfg,
		Gateway:    gateway.New(store, breaker, routes, logger),
		Shelters:   shelters.NewService(store, cfg.Shelters, client, logger),
		RouteCache: routes,
		Breaker:    breaker,
		Logger:     logger,
		Version:    version,
	}, nil
}
