package gateway

import (
	"context"
	"sync"
	"time"

	"shelternav.org/internal/metrics"
)

// RouteStore holds provider payloads keyed by the requested (start, end)
// pair. Callers pass the current time so stores stay clock-agnostic.
type RouteStore interface {
	// Get returns the payload stored for key if it is still fresh at now.
	Get(key string, now time.Time) ([]byte, bool)
	Set(key string, payload []byte, now time.Time)
	// Sweep drops expired entries and returns how many were removed.
	Sweep(now time.Time) int
}

type cachedRoute struct {
	payload  []byte
	storedAt time.Time
}

// MemoryRouteStore is an in-process RouteStore with a fixed TTL.
//
// Expired entries are never returned, but they stay in memory until Sweep
// runs. ClearRoutine does that periodically.
type MemoryRouteStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedRoute
}

func NewMemoryRouteStore(ttl time.Duration) *MemoryRouteStore {
	return &MemoryRouteStore{
		ttl:     ttl,
		entries: make(map[string]cachedRoute),
	}
}

func (m *MemoryRouteStore) Get(key string, now time.Time) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || !m.fresh(entry, now) {
		return nil, false
	}
	return entry.payload, true
}

func (m *MemoryRouteStore) Set(key string, payload []byte, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = cachedRoute{payload: payload, storedAt: now}
	metrics.RouteCacheEntries.Set(float64(len(m.entries)))
}

func (m *MemoryRouteStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if !m.fresh(entry, now) {
			delete(m.entries, key)
			removed++
		}
	}
	metrics.RouteCacheEntries.Set(float64(len(m.entries)))
	return removed
}

// Len counts stored entries, expired ones included.
func (m *MemoryRouteStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// fresh reports whether entry is younger than the TTL at now.
func (m *MemoryRouteStore) fresh(entry cachedRoute, now time.Time) bool {
	return now.Sub(entry.storedAt) < m.ttl
}

// ClearRoutine sweeps store every interval until ctx is canceled.
//
// ctx: Context for canceling the routine.
// interval: Time between sweeps.
// now: Clock used to judge expiry, usually time.Now.
func ClearRoutine(ctx context.Context, store RouteStore, interval time.Duration, now func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			store.Sweep(now())
		case <-ctx.Done():
			return
		}
	}
}
