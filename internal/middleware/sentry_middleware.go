package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/http"
)

// SentryMiddleware reports panics to Sentry and tags each request's hub
// with the client address and route path, so errors reported from handlers
// carry them.
//
// Panics are re-raised after reporting. The response does not wait for
// delivery; FlushSentry at shutdown sends what is left.
func SentryMiddleware(next http.Handler) http.Handler {
	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})

	return sentryHandler.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("path", r.URL.Path)
				scope.SetUser(sentry.User{IPAddress: r.RemoteAddr})
			})
		}
		next.ServeHTTP(w, r)
	}))
}
