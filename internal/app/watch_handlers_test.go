package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"shelternav.org/internal/watch"
)

func dialWatch(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/watch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	return conn, resp, err
}

func readSnapshot(t *testing.T, conn *websocket.Conn) snapshotMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	var msg snapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("snapshot is not JSON: %v (%s)", err, data)
	}
	return msg
}

func TestWatchHandler(t *testing.T) {
	provider := newFakeOSRM(t)
	app := newTestApplication(t, testConfig(provider.URL))
	server := httptest.NewServer(newTestHandler(t, app))
	defer server.Close()

	conn, _, err := dialWatch(t, server, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":12.9730,"lon":77.5940}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := readSnapshot(t, conn)
	if first.Outcome != watch.OutcomeRouted {
		t.Fatalf("expected a routed snapshot, got %+v", first)
	}
	if first.Nearest == nil || first.Nearest.Name != "A" {
		t.Errorf("expected nearest shelter A, got %+v", first.Nearest)
	}
	if first.Route == nil || len(first.Route.Points) != 3 || first.Route.FromCache {
		t.Fatalf("unexpected route %+v", first.Route)
	}
	if first.Route.Points[0] != [2]float64{12.973, 77.594} {
		t.Errorf("points should be [lat, lon], got %v", first.Route.Points[0])
	}
	if first.SessionID == "" {
		t.Error("snapshot should carry the session id")
	}

	// Malformed messages are ignored without a reply.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":"north"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"lat":12.9731,"lon":77.5941}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := readSnapshot(t, conn)
	if second.Outcome != watch.OutcomeThrottled {
		t.Fatalf("expected the second update to be throttled, got %+v", second)
	}
	if second.Route == nil || len(second.Route.Points) != 3 {
		t.Errorf("throttled update must keep the previous route, got %+v", second.Route)
	}
	if second.Position == nil || second.Position.Lat != 12.9731 {
		t.Errorf("position not updated: %+v", second.Position)
	}

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestWatchHandlerRejectsOrigin(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.CORS.Origin = "https://map.example"
	app := newTestApplication(t, cfg)
	server := httptest.NewServer(newTestHandler(t, app))
	defer server.Close()

	_, resp, err := dialWatch(t, server, http.Header{"Origin": []string{"https://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}

	conn, _, err := dialWatch(t, server, http.Header{"Origin": []string{"https://map.example"}})
	if err != nil {
		t.Fatalf("configured origin should connect: %v", err)
	}
	conn.Close()
}
