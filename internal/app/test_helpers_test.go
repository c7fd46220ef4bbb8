package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"shelternav.org/internal/config"
	"shelternav.org/internal/models"
)

const osrmRoutePayload = `{"code":"Ok","routes":[{"distance":125.6,"duration":90.4,"geometry":{"type":"LineString","coordinates":[[77.594,12.973],[77.5936,12.9726],[77.5933,12.9721]]}}],"waypoints":[]}`

// fakeOSRM answers OSRM route requests. Coordinates starting with "0," get
// a 400 NoRoute answer, like the real service for points off the map.
type fakeOSRM struct {
	*httptest.Server
	calls atomic.Int32
}

func newFakeOSRM(t *testing.T) *fakeOSRM {
	t.Helper()
	f := &fakeOSRM{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if !strings.HasPrefix(r.URL.Path, "/route/v1/foot/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(strings.TrimPrefix(r.URL.Path, "/route/v1/foot/"), "0,") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"NoRoute","message":"Impossible route between points"}`))
			return
		}
		_, _ = w.Write([]byte(osrmRoutePayload))
	}))
	t.Cleanup(f.Close)
	return f
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Env = "testing"
	cfg.Routing = config.RoutingConfig{Provider: config.ProviderOSRM, BaseURL: baseURL}
	return cfg
}

// newTestApplication wires an Application around cfg with shelters A and B.
func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := New(cfg, logger, &http.Client{Timeout: 5 * time.Second}, "test-version")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	app.Shelters.Store.Set([]models.Shelter{
		models.NewShelter("A", 12.9721, 77.5933),
		models.NewShelter("B", 12.9755, 77.5980),
	})
	return app
}

func newTestHandler(t *testing.T, app *Application) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return app.Routes(ctx)
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	h.ServeHTTP(rr, req)
	return rr
}
