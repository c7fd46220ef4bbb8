package watch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"shelternav.org/internal/metrics"
	"shelternav.org/internal/models"
)

var (
	ErrAlreadySubscribed = errors.New("position source already has a subscriber")
	ErrSourceClosed      = errors.New("position source is closed")
)

// PositionSource produces position updates for one subscriber at a time.
//
// Subscribe starts delivery on the returned channel. Cancelling ctx detaches
// the subscriber and closes the channel; the source itself keeps going and
// can be subscribed to again.
type PositionSource interface {
	Subscribe(ctx context.Context) (<-chan models.Position, error)
}

// Feed is a push-based PositionSource. Producers call Publish; the current
// subscriber receives updates through a bounded queue. Updates that arrive
// with no subscriber, or with a full queue, are dropped.
type Feed struct {
	mu     sync.Mutex
	buffer int
	sub    chan models.Position
	closed bool
}

func NewFeed(buffer int) *Feed {
	if buffer < 1 {
		buffer = 1
	}
	return &Feed{buffer: buffer}
}

func (f *Feed) Subscribe(ctx context.Context) (<-chan models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrSourceClosed
	}
	if f.sub != nil {
		return nil, ErrAlreadySubscribed
	}

	ch := make(chan models.Position, f.buffer)
	f.sub = ch

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.sub == ch {
			f.sub = nil
			close(ch)
		}
	}()

	return ch, nil
}

// Publish offers pos to the current subscriber and reports whether it was queued.
func (f *Feed) Publish(pos models.Position) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub == nil {
		return false
	}
	select {
	case f.sub <- pos:
		return true
	default:
		metrics.DroppedPositions.Inc()
		return false
	}
}

// Close ends the feed. The current subscriber's channel is closed and later
// calls to Subscribe fail.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	if f.sub != nil {
		close(f.sub)
		f.sub = nil
	}
}

// LineSource reads "lat,lon" lines from a reader, one position per line.
// Blank lines and lines starting with '#' are skipped; malformed lines are
// logged and skipped. A non-zero pace waits that long between positions,
// which makes a recorded track replay like a live one.
//
// One reader goroutine, started by the first Subscribe, owns the input for
// the source's lifetime. Subscribers only attach to it: a cancelled
// subscriber detaches at once, and a position it was handed but never took
// goes to the next subscriber. The channel closes at end of input.
type LineSource struct {
	pace   time.Duration
	logger *slog.Logger
	r      io.Reader

	start sync.Once
	lines chan models.Position

	mu     sync.Mutex
	subCtx context.Context
	exited chan struct{}

	// Owned by whichever forwarder is running; forwarders never overlap.
	pending   *models.Position
	delivered bool
}

func NewLineSource(r io.Reader, pace time.Duration, logger *slog.Logger) *LineSource {
	return &LineSource{
		pace:   pace,
		logger: logger,
		r:      r,
		lines:  make(chan models.Position),
	}
}

// Subscribe attaches a subscriber. It fails while another subscriber's
// context is still live.
func (s *LineSource) Subscribe(ctx context.Context) (<-chan models.Position, error) {
	s.start.Do(func() { go s.read() })

	s.mu.Lock()
	if s.subCtx != nil && s.subCtx.Err() == nil {
		s.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	prev := s.exited
	exited := make(chan struct{})
	s.subCtx = ctx
	s.exited = exited
	s.mu.Unlock()

	ch := make(chan models.Position)
	go s.forward(ctx, prev, exited, ch)
	return ch, nil
}

// forward moves positions from the reader to one subscriber until ctx is
// done or the input ends.
func (s *LineSource) forward(ctx context.Context, prev <-chan struct{}, exited chan struct{}, ch chan<- models.Position) {
	defer func() {
		s.mu.Lock()
		if s.exited == exited {
			s.subCtx = nil
		}
		s.mu.Unlock()
		close(ch)
		close(exited)
	}()

	// The previous forwarder's ctx is done, so it returns promptly.
	if prev != nil {
		<-prev
	}

	for {
		var pos models.Position
		if s.pending != nil {
			pos, s.pending = *s.pending, nil
		} else {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-s.lines:
				if !ok {
					return
				}
				pos = p
			}
		}

		if s.delivered && s.pace > 0 {
			timer := time.NewTimer(s.pace)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.pending = &pos
				return
			case <-timer.C:
			}
		}

		select {
		case <-ctx.Done():
			s.pending = &pos
			return
		case ch <- pos:
			s.delivered = true
		}
	}
}

func (s *LineSource) read() {
	defer close(s.lines)

	scanner := bufio.NewScanner(s.r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		pos, err := ParseLatLon(text)
		if err != nil {
			s.logger.Warn("Skipping malformed position", "line", line, "error", err)
			continue
		}
		s.lines <- pos
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("Failed to read positions", "error", err)
	}
}

// ParseLatLon parses a "lat,lon" pair. Only the syntax is checked; range
// checks are left to the session, which reports them as a status.
func ParseLatLon(s string) (models.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Position{}, fmt.Errorf("expected lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Position{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	return models.Position{Lat: lat, Lon: lon}, nil
}
