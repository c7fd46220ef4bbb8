package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"shelternav.org/internal/gateway"
	"shelternav.org/internal/routing"
)

const (
	msgFetchFailed      = "Failed to fetch route"
	msgProviderNotReady = "routing provider is not configured"
)

// routeHandler serves GET /api/route?start=lon,lat&end=lon,lat.
func (app *Application) routeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := app.Gateway.RequestRoute(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		app.routeErrorResponse(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, result)
}

// routeErrorResponse maps gateway and provider errors to HTTP answers.
// A provider's own error answer is forwarded with its status code.
func (app *Application) routeErrorResponse(w http.ResponseWriter, err error) {
	var (
		validation    *gateway.ValidationError
		configuration *routing.ConfigurationError
		upstream      *routing.UpstreamError
	)

	switch {
	case errors.As(err, &validation):
		app.errorResponse(w, http.StatusBadRequest, validation.Msg)
	case errors.As(err, &configuration):
		app.errorResponse(w, http.StatusInternalServerError, msgProviderNotReady)
	case errors.As(err, &upstream):
		app.errorResponse(w, upstream.StatusCode, upstreamBody(upstream.Body))
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the answer.
		w.WriteHeader(499)
	default:
		app.errorResponse(w, http.StatusInternalServerError, msgFetchFailed)
	}
}

// upstreamBody returns a provider error body as embedded JSON when it is
// JSON, and as a string otherwise.
func upstreamBody(body []byte) interface{} {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
