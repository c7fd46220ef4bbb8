package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutgoingLatency tracks the duration of outgoing HTTP requests made by the pooled client.
	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelternav_outgoing_request_duration_seconds",
			Help:    "Latency of outgoing HTTP requests (routing providers, shelter sources)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url", "method", "status"},
	)
)

var (
	// RouteRequests counts route lookups served by the gateway, labeled by
	// where the answer came from ("cache" or "provider").
	RouteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelternav_route_requests_total",
		Help: "Number of route requests answered, by source (cache or provider)",
	}, []string{"source"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelternav_provider_errors_total",
		Help: "Number of failed routing provider calls, by provider and error kind",
	}, []string{"provider", "kind"})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelternav_rate_limit_rejections_total",
		Help: "Number of API requests rejected by the per-client rate limit",
	})

	// CircuitBreakerState is 0 when closed, 1 when half-open and 2 when open.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shelternav_circuit_breaker_state",
		Help: "State of the routing provider circuit breaker (0 = closed, 1 = half-open, 2 = open)",
	}, []string{"name"})
)

var (
	ShelterCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shelternav_shelters",
		Help: "Number of shelters currently loaded",
	})

	RouteCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shelternav_route_cache_entries",
		Help: "Number of entries held by the route cache",
	})
)

var (
	WatchSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shelternav_watch_sessions",
		Help: "Number of active location watch sessions",
	})

	// WatchEvents counts position reactions by outcome:
	// routed, throttled, no_shelter, invalid, failed.
	WatchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelternav_watch_events_total",
		Help: "Number of position updates processed by watch sessions, by outcome",
	}, []string{"outcome"})

	DroppedPositions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelternav_dropped_positions_total",
		Help: "Number of position updates dropped because a session could not keep up",
	})
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelternav_http_requests_total",
		Help: "Number of HTTP requests served, by method, route and status code",
	}, []string{"method", "route", "status"})
)
