package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"shelternav.org/internal/geo"
	"shelternav.org/internal/metrics"
	"shelternav.org/internal/models"
)

// RouteRequester fetches a walking route between two positions.
type RouteRequester interface {
	Route(ctx context.Context, start, end models.Position) (models.Route, error)
}

// Outcome describes how a session reacted to one position update.
type Outcome string

const (
	OutcomeRouted    Outcome = "routed"
	OutcomeThrottled Outcome = "throttled"
	OutcomeNoShelter Outcome = "no_shelter"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeFailed    Outcome = "failed"
	OutcomeStopped   Outcome = "stopped"
)

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	SessionID string
	Position  *models.Position
	Nearest   *models.NearestResult
	Route     *models.Route
	Status    string
	Outcome   Outcome
	Throttle  models.ThrottleState
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now as the session's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOnUpdate registers a callback that receives a snapshot after every
// reaction. It runs on the session's goroutine and is never called once Stop
// has returned. The callback must not call Stop.
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithID sets the session ID used in logs and snapshots.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session runs the location watch loop for one user: each position update
// selects the nearest shelter and, when the throttle allows, asks for a
// walking route to it.
//
// Updates are handled one at a time. The shelter set is fixed when the
// session is created.
type Session struct {
	id        string
	shelters  []models.Shelter
	requester RouteRequester
	throttle  *Throttle
	logger    *slog.Logger
	now       func() time.Time
	onUpdate  func(Snapshot)

	// notifyMu is held while onUpdate runs; Stop takes it to wait out a
	// callback in progress.
	notifyMu sync.Mutex

	mu       sync.Mutex
	position *models.Position
	nearest  *models.NearestResult
	route    *models.Route
	status   string
	outcome  Outcome
	stopped  bool
	cancel   context.CancelFunc
}

func NewSession(shelters []models.Shelter, requester RouteRequester, throttle *Throttle, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		shelters:  append([]models.Shelter(nil), shelters...),
		requester: requester,
		throttle:  throttle,
		logger:    logger,
		now:       time.Now,
		status:    "Waiting for location",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Run subscribes to source and reacts to each position until ctx is done,
// the source closes, or Stop is called. Each reaction, including its route
// request, finishes before the next update is read.
func (s *Session) Run(ctx context.Context, source PositionSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	events, err := source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to positions: %w", err)
	}

	metrics.WatchSessions.Inc()
	defer metrics.WatchSessions.Dec()
	s.logger.Info("Watch session started", "shelters", len(s.shelters), "route_interval", s.throttle.Interval())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Watch session ended")
			if s.isStopped() {
				return nil
			}
			return ctx.Err()
		case pos, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil && !s.isStopped() {
					return err
				}
				s.logger.Info("Position source closed")
				return nil
			}
			s.HandlePosition(ctx, pos)
		}
	}
}

// HandlePosition reacts to a single position update and returns the
// resulting state.
//
// Failures never end the session; they are reported through the status.
// The route request runs on a context that ignores cancellation, and a
// result that arrives after Stop is discarded.
func (s *Session) HandlePosition(ctx context.Context, pos models.Position) Snapshot {
	s.mu.Lock()
	if s.stopped {
		defer s.mu.Unlock()
		return s.snapshotLocked(OutcomeStopped)
	}

	if !geo.IsValidPosition(pos) {
		s.status = fmt.Sprintf("Invalid location %.6f,%.6f", pos.Lat, pos.Lon)
		return s.finishLocked(OutcomeInvalid)
	}

	p := pos
	s.position = &p

	nearest, ok := geo.Nearest(pos, s.shelters)
	if !ok {
		s.nearest = nil
		s.status = "No shelters available"
		return s.finishLocked(OutcomeNoShelter)
	}
	s.nearest = &nearest
	s.status = fmt.Sprintf("Nearest shelter: %s (%.0f m)", nearest.Shelter.Name, nearest.DistanceMeters)

	if !s.throttle.Allow(s.now()) {
		return s.finishLocked(OutcomeThrottled)
	}
	s.mu.Unlock()

	route, err := s.requester.Route(context.WithoutCancel(ctx), pos, nearest.Shelter.Location)

	s.mu.Lock()
	if s.stopped {
		defer s.mu.Unlock()
		s.logger.Debug("Discarding route that arrived after stop", "shelter", nearest.Shelter.Name)
		return s.snapshotLocked(OutcomeStopped)
	}
	if err != nil {
		s.logger.Warn("Route request failed", "shelter", nearest.Shelter.Name, "error", err)
		s.status = fmt.Sprintf("Route to %s unavailable: %v", nearest.Shelter.Name, err)
		return s.finishLocked(OutcomeFailed)
	}

	s.route = &route
	source := "provider"
	if route.FromCache {
		source = "cache"
	}
	s.status = fmt.Sprintf("Route to %s ready (%s, %.0f m)", nearest.Shelter.Name, source, nearest.DistanceMeters)
	return s.finishLocked(OutcomeRouted)
}

// finishLocked records the outcome, releases the lock and notifies the
// update callback. The caller must hold s.mu.
func (s *Session) finishLocked(outcome Outcome) Snapshot {
	snap := s.snapshotLocked(outcome)
	s.outcome = outcome
	s.mu.Unlock()

	metrics.WatchEvents.WithLabelValues(string(outcome)).Inc()
	if s.onUpdate == nil {
		return snap
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if s.isStopped() {
		return snap
	}
	s.onUpdate(snap)
	return snap
}

func (s *Session) snapshotLocked(outcome Outcome) Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		Status:    s.status,
		Outcome:   outcome,
		Throttle:  s.throttle.State(),
	}
	if s.position != nil {
		p := *s.position
		snap.Position = &p
	}
	if s.nearest != nil {
		n := *s.nearest
		snap.Nearest = &n
	}
	if s.route != nil {
		r := *s.route
		snap.Route = &r
	}
	return snap
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.outcome)
}

// Stop halts event delivery. It is safe to call more than once and from any
// goroutine except the update callback. A route request already in flight
// is left to finish, but its result is ignored. Stop waits for an update
// callback in progress to return.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.status = "Stopped"
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// Wait for a callback in progress.
	s.notifyMu.Lock()
	s.notifyMu.Unlock() //nolint:staticcheck
}

func (s *Session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
