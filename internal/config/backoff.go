package config

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

const (
	BASE_BACKOFF   = 1 * time.Second
	MAX_BACKOFF    = 2 * time.Minute
	BACKOFF_FACTOR = 2.0
	JITTER_FACTOR  = 0.5
)

// DoWithBackoff sends req with client, retrying transport errors and 5xx
// responses with exponential backoff and jitter. It makes at most
// maxRetries+1 attempts and gives up early when ctx is done. A maxRetries
// of zero or less retries until ctx is done.
//
// It is used for startup fetches of shelter sources only. Route requests
// are never retried.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	delay := BASE_BACKOFF
	var lastErr error

	for attempt := 0; maxRetries <= 0 || attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := client.Do(req.Clone(ctx))
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		lastErr = err

		if maxRetries > 0 && attempt == maxRetries {
			break
		}

		timer := time.NewTimer(withJitter(delay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = calculateNewBackoffDelay(delay)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func withJitter(backoff time.Duration) time.Duration {
	jitter := time.Duration(rand.Float64() * float64(backoff) * JITTER_FACTOR)
	backoff += jitter
	if backoff > MAX_BACKOFF {
		backoff = MAX_BACKOFF
	}
	return backoff
}

func calculateNewBackoffDelay(backoffDelay time.Duration) time.Duration {
	backoffDelay *= BACKOFF_FACTOR
	if backoffDelay >= MAX_BACKOFF {
		backoffDelay = MAX_BACKOFF
	}
	return backoffDelay
}
