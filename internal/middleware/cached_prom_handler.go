package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// CachedPromHandler serves a Prometheus exposition that is regathered at a
// fixed interval instead of on every scrape.
type CachedPromHandler struct {
	mu    sync.RWMutex
	cache []byte
	ttl   time.Duration
	h     http.Handler
}

// NewCachedPromHandler gathers once and then refreshes every ttl until ctx
// is canceled.
//
// ttl should not exceed the scrape interval.
func NewCachedPromHandler(ctx context.Context, gatherer prometheus.Gatherer, ttl time.Duration) *CachedPromHandler {
	c := &CachedPromHandler{
		ttl: ttl,
		h:   promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}

	c.refresh()
	go c.refreshLoop(ctx)
	return c
}

func (c *CachedPromHandler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

func (c *CachedPromHandler) refresh() {
	var buf bytes.Buffer
	rec := &responseRecorder{buf: &buf, header: http.Header{}}
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	c.h.ServeHTTP(rec, req)

	// Keep the last good exposition if gathering failed.
	if rec.status != 0 && rec.status != http.StatusOK {
		return
	}

	c.mu.Lock()
	c.cache = buf.Bytes()
	c.mu.Unlock()
}

// ServeHTTP writes the cached exposition, or gathers live if nothing has
// been cached yet.
func (c *CachedPromHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.cache) == 0 {
		c.h.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	_, _ = w.Write(c.cache)
}

// responseRecorder captures promhttp output into a buffer.
type responseRecorder struct {
	buf    *bytes.Buffer
	header http.Header
	status int
}

func (rr *responseRecorder) Write(b []byte) (int, error) { return rr.buf.Write(b) }
func (rr *responseRecorder) Header() http.Header        { return rr.header }
func (rr *responseRecorder) WriteHeader(statusCode int) { rr.status = statusCode }
