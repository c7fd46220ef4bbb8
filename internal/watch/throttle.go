package watch

import (
	"sync"
	"time"

	"shelternav.org/internal/models"
)

// Throttle is a minimum-interval gate. It permits an action only when at
// least interval has passed since the last permitted one. Denied calls
// leave no trace.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewThrottle returns a Throttle that has never permitted anything.
// An interval of zero or less permits every call.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an action at now is permitted and, if so, records
// now as the last permitted time. The check and the update happen under
// one lock, so two callers can never both be permitted within an interval.
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Interval is the minimum time between permitted actions.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// State returns when an action was last permitted.
func (t *Throttle) State() models.ThrottleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.ThrottleState{LastPermitted: t.last}
}
