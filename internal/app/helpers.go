package app

import (
	"net/http"

	"github.com/goccy/go-json"
)

// envelope wraps JSON object responses.
type envelope map[string]interface{}

func (app *Application) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		app.Logger.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (app *Application) errorResponse(w http.ResponseWriter, status int, message interface{}) {
	app.writeJSON(w, status, envelope{"error": message})
}
