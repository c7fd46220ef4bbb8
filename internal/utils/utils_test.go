package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"shelternav.org/internal/metrics"
)

func TestMakeMap(t *testing.T) {
	m := MakeMap("provider", "osrm")
	if len(m) != 1 || m["provider"] != "osrm" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestNewPooledClientRecordsLatency(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	client := NewPooledClient()
	resp, err := client.Get(ts.URL + "/route?start=1,2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", resp.StatusCode)
	}

	// The label drops the query string.
	h := metrics.OutgoingLatency.WithLabelValues(ts.URL+"/route", http.MethodGet, "418")
	count := testutilSampleCount(t, h)
	if count != 1 {
		t.Errorf("expected 1 observation, got %d", count)
	}
}

func TestNewPooledClientLabelsTransportErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL + "/gone"
	ts.Close()

	client := NewPooledClient()
	if _, err := client.Get(url); err == nil {
		t.Fatal("expected an error from a closed server")
	}

	h := metrics.OutgoingLatency.WithLabelValues(url, http.MethodGet, "error")
	if count := testutilSampleCount(t, h); count != 1 {
		t.Errorf("expected 1 error observation, got %d", count)
	}
}
