package routing

import (
	"context"
	"sync"

	"shelternav.org/internal/config"
	"shelternav.org/internal/models"
)

func configFor(provider, apiKey string) config.RoutingConfig {
	return config.RoutingConfig{Provider: provider, APIKey: apiKey}
}

// stubProvider returns queued results in order and counts calls.
type stubProvider struct {
	mu      sync.Mutex
	calls   int
	results []stubResult
}

type stubResult struct {
	payload []byte
	err     error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Directions(ctx context.Context, start, end models.Position) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.results) == 0 {
		return []byte(`{}`), nil
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r.payload, r.err
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
