package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"shelternav.org/internal/middleware"
)

// Routes builds the HTTP handler for the gateway.
//
// Registered routes:
//   - GET /api/health
//   - GET /api/shelters (GeoJSON)
//   - POST /api/shelters, outside production only
//   - GET /api/route?start=lon,lat&end=lon,lat
//   - GET /api/watch (websocket)
//   - GET /metrics (cached Prometheus exposition)
//
// Every /api route shares one per-client rate limit. The router is wrapped,
// outermost first, in security headers, Sentry and CORS.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	limit := middleware.RateLimit(app.Config.RateLimit.Max, app.Config.RateLimitWindow(), app.Logger)
	api := func(method, path string, h http.HandlerFunc) {
		router.Handler(method, path, middleware.InstrumentRoute(path, limit(h)))
	}

	api(http.MethodGet, "/api/health", app.healthcheckHandler)
	api(http.MethodGet, "/api/shelters", app.listSheltersHandler)
	if !app.Config.IsProduction() {
		api(http.MethodPost, "/api/shelters", app.addShelterHandler)
	}
	api(http.MethodGet, "/api/route", app.routeHandler)
	api(http.MethodGet, "/api/watch", app.watchHandler)

	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	handler := middleware.CORS(middleware.AllowedOrigins(app.Config.CORS.Origin))(router)
	handler = middleware.SentryMiddleware(handler)
	return middleware.SecurityHeaders(handler)
}
