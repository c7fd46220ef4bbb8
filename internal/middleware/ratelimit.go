package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"shelternav.org/internal/metrics"
)

const rateLimitMessage = "Too many requests, please try again later."

// RateLimit allows each client address at most limit requests within a
// sliding window. Every handler wrapped by the returned middleware shares
// one counter per address. Rejections get 429 with a JSON error body.
func RateLimit(limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimitRejections.Inc()
			logger.Warn("Rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": rateLimitMessage})
		}),
	)
}
