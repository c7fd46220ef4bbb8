package shelters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("ValidRecords", func(t *testing.T) {
		path := writeTempFile(t, "shelters.json", `[
			{"name": "A", "lat": 12.9721, "lon": 77.5933},
			{"name": "B", "lat": 12.9755, "lon": 77.5980}
		]`)

		shelters, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile failed: %v", err)
		}
		if len(shelters) != 2 {
			t.Fatalf("Expected 2 shelters, got %d", len(shelters))
		}
		if shelters[1].Name != "B" || shelters[1].Location.Lat != 12.9755 || shelters[1].Location.Lon != 77.5980 {
			t.Errorf("Unexpected shelter %+v", shelters[1])
		}
	})

	t.Run("ValidGeoJSON", func(t *testing.T) {
		path := writeTempFile(t, "shelters.geojson", `{
			"type": "FeatureCollection",
			"features": [
				{"type": "Feature", "properties": {"name": "A"}, "geometry": {"type": "Point", "coordinates": [77.5933, 12.9721]}}
			]
		}`)

		shelters, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile failed: %v", err)
		}
		if len(shelters) != 1 || shelters[0].Location.Lat != 12.9721 {
			t.Errorf("Unexpected shelters %+v", shelters)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		path := writeTempFile(t, "invalid.json", `{ this is not valid JSON }`)
		if _, err := LoadFromFile(path); err == nil {
			t.Errorf("Expected error with invalid JSON, got none")
		}
	})

	t.Run("InvalidRecord", func(t *testing.T) {
		path := writeTempFile(t, "bad.json", `[{"name": "A", "lat": 120, "lon": 77.59}]`)
		if _, err := LoadFromFile(path); err == nil {
			t.Errorf("Expected error for out of range latitude, got none")
		}
	})

	t.Run("EmptyList", func(t *testing.T) {
		path := writeTempFile(t, "empty.json", `[]`)
		if _, err := LoadFromFile(path); err == nil {
			t.Errorf("Expected error for empty shelter list, got none")
		}
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		if _, err := LoadFromFile("non-existent-file.json"); err == nil {
			t.Errorf("Expected error for non-existent file, got none")
		}
	})
}

func TestLoadFromURL(t *testing.T) {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	t.Run("ValidResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "user" || pass != "pass" {
				t.Errorf("expected basic auth user/pass, got %q/%q", user, pass)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"name": "A", "lat": 12.9721, "lon": 77.5933}]`))
		}))
		defer ts.Close()

		shelters, err := LoadFromURL(context.Background(), client, ts.URL, "user", "pass", 1)
		if err != nil {
			t.Fatalf("LoadFromURL failed: %v", err)
		}
		if len(shelters) != 1 || shelters[0].Name != "A" {
			t.Errorf("Unexpected shelters %+v", shelters)
		}
	})

	t.Run("ErrorResponse", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		if _, err := LoadFromURL(context.Background(), client, ts.URL, "", "", 1); err == nil {
			t.Errorf("Expected error with 404 response, got none")
		}
	})

	t.Run("InvalidBody", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer ts.Close()

		if _, err := LoadFromURL(context.Background(), client, ts.URL, "", "", 1); err == nil {
			t.Errorf("Expected error with invalid body, got none")
		}
	})

	t.Run("InvalidURL", func(t *testing.T) {
		if _, err := LoadFromURL(context.Background(), client, "://bad-url", "", "", 1); err == nil {
			t.Errorf("Expected error with invalid URL, got none")
		}
	})
}
