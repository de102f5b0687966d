// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

// Package metrics holds the Prometheus instrumentation for Steamwatch.
//
// Instrumented areas:
//   - Steam Web API requests and the outbound request spacing
//   - response cache and artwork cache effectiveness
//   - poll cycles and poller state
//   - circuit breaker state
//   - HTTP API and WebSocket connections
//
// Metrics are registered with the default registry through promauto and
// exposed by the API router at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream (Steam Web API) Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_upstream_requests_total",
			Help: "Total Steam Web API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, transient, auth, privacy
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steamwatch_upstream_request_duration_seconds",
			Help:    "Duration of Steam Web API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_upstream_retries_total",
			Help: "Requests retried after HTTP 429",
		},
		[]string{"endpoint"},
	)

	// Rate Limiter Metrics
	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steamwatch_ratelimit_wait_seconds",
			Help:    "Time callers spent waiting for an upstream request slot",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_cache_lookups_total",
			Help: "Response cache results by cache and result",
		},
		[]string{"cache", "result"}, // result: fresh, stale, unavailable, miss
	)

	ArtworkFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_artwork_fetches_total",
			Help: "Artwork lookups by result",
		},
		[]string{"result"}, // result: hit, fetched, shared, error
	)

	ArtworkEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steamwatch_artwork_entries",
			Help: "Number of games with cached artwork",
		},
	)

	// Poller Metrics
	PollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_poll_cycles_total",
			Help: "Completed poll cycles by trigger",
		},
		[]string{"trigger"}, // trigger: timer, manual, startup
	)

	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steamwatch_poll_cycle_duration_seconds",
			Help:    "Duration of a full poll cycle in seconds",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30, 60},
		},
	)

	PollTriggersCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steamwatch_poll_triggers_coalesced_total",
			Help: "Manual refresh triggers absorbed by an in-flight or pending cycle",
		},
	)

	PollerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steamwatch_poller_state",
			Help: "Poller state (0=idle, 1=fetching, 2=merging, 3=published)",
		},
	)

	SnapshotLastPublished = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steamwatch_snapshot_last_published_timestamp",
			Help: "Unix timestamp of the last published snapshot",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "steamwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamwatch_http_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steamwatch_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steamwatch_websocket_clients",
			Help: "Number of connected WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steamwatch_websocket_messages_sent_total",
			Help: "Total WebSocket messages sent",
		},
	)
)

// RecordUpstreamRequest records one Steam Web API request.
func RecordUpstreamRequest(endpoint, outcome string, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPollCycle records a completed poll cycle.
func RecordPollCycle(trigger string, duration time.Duration, publishedAt time.Time) {
	PollCycles.WithLabelValues(trigger).Inc()
	PollCycleDuration.Observe(duration.Seconds())
	SnapshotLastPublished.Set(float64(publishedAt.Unix()))
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
