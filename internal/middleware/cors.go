package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// AllowedOrigins splits a comma-separated origin setting. An empty setting
// allows any origin.
func AllowedOrigins(setting string) []string {
	var origins []string
	for _, o := range strings.Split(setting, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// OriginAllowed reports whether origin matches one of origins. A "*" entry
// matches everything, including a missing origin.
func OriginAllowed(origins []string, origin string) bool {
	for _, allowed := range origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// CORS lets the configured origins call the API from a browser.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	})
}
