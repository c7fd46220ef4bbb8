package routing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"shelternav.org/internal/metrics"
	"shelternav.org/internal/models"
)

// BreakerSettings controls when the provider circuit opens.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit. Default: 5
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	// Default: 30s
	OpenTimeout time.Duration
}

// BreakerProvider wraps a Provider in a circuit breaker. Only transient
// failures count against the circuit: an upstream error is a valid answer
// from a healthy provider, and a configuration error never reaches it.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[[]byte]
}

func WithBreaker(next Provider, settings BreakerSettings, logger *slog.Logger) *BreakerProvider {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.OpenTimeout == 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	name := next.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			var upstream *UpstreamError
			var configuration *ConfigurationError
			return err == nil || errors.As(err, &upstream) || errors.As(err, &configuration)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn("Routing circuit breaker changed state", "provider", name, "from", from.String(), "to", to.String())
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

func (b *BreakerProvider) Name() string {
	return b.next.Name()
}

func (b *BreakerProvider) Directions(ctx context.Context, start, end models.Position) ([]byte, error) {
	payload, err := b.cb.Execute(func() ([]byte, error) {
		return b.next.Directions(ctx, start, end)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &TransientError{Provider: b.Name(), Err: err}
	}
	return payload, err
}

// State exposes the breaker state for health reporting.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
