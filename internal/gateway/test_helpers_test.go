package gateway

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shelternav.org/internal/models"
	"shelternav.org/internal/shelters"
)

const osrmPayload = `{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[77.594,12.973],[77.5936,12.9726],[77.5933,12.9721]]}}]}`

type stubProvider struct {
	calls   atomic.Int32
	payload []byte
	err     error
	// release, when set, blocks Directions until it is closed.
	release chan struct{}
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Directions(ctx context.Context, start, end models.Position) ([]byte, error) {
	p.calls.Add(1)
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGateway(t *testing.T, provider *stubProvider, clock *fakeClock) *Gateway {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := shelters.NewStore([]models.Shelter{
		models.NewShelter("A", 12.9721, 77.5933),
		models.NewShelter("B", 12.9755, 77.5980),
	})
	return New(store, provider, NewMemoryRouteStore(30*time.Second), logger, WithClock(clock.Now))
}
