package app

import (
	"net/http"
)

// HealthStatus is the body of GET /api/health.
//
// Status is always "ok" while the process serves requests. Breaker reports
// the routing circuit ("closed", "half-open" or "open"), so a degraded
// provider is visible without failing the check.
type HealthStatus struct {
	Status   string `json:"status"`
	Env      string `json:"env"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Breaker  string `json:"breaker"`
	Shelters int    `json:"shelters"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, HealthStatus{
		Status:   "ok",
		Env:      app.Config.Env,
		Version:  app.Version,
		Provider: app.Breaker.Name(),
		Breaker:  app.Breaker.State().String(),
		Shelters: app.Shelters.Store.Len(),
	})
}
