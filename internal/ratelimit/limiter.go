// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

// Package ratelimit spaces outbound Steam Web API requests.
//
// The Web API allows roughly one request per second per key. Every upstream
// call in the process, whether issued by the poll loop, a manual refresh or
// a friends batch lookup, goes through one shared Limiter so the ceiling holds
// regardless of how many calls a cycle makes.
//
// Unlike a token bucket (golang.org/x/time/rate), the Limiter never grants a
// burst: two grants are always at least Interval apart, and waiters are served
// in arrival order.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/steamwatch/internal/metrics"
)

// DefaultInterval is the minimum spacing between Steam Web API requests.
const DefaultInterval = time.Second

// Config configures a Limiter.
type Config struct {
	// Interval is the minimum time between the starts of two granted requests.
	// Default: 1s
	Interval time.Duration

	// Clock is the time source. Default: the real clock.
	Clock clockwork.Clock
}

// Stats is a point-in-time view of limiter activity.
type Stats struct {
	Grants    uint64
	TotalWait time.Duration
	LastGrant time.Time
}

// Limiter serializes callers and enforces a minimum interval between grants.
//
// The turn channel holds a single token. Goroutines blocked receiving on a
// channel are woken in arrival order, which makes Acquire first-come,
// first-served. The token holder is the only goroutine that reads or writes
// lastGrant, so the interval check and the update cannot interleave.
type Limiter struct {
	interval time.Duration
	clock    clockwork.Clock
	turn     chan struct{}

	mu        sync.Mutex
	lastGrant time.Time
	grants    uint64
	totalWait time.Duration

	// onGrant is invoked with each grant time while the turn is held.
	onGrant func(time.Time)
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	l := &Limiter{
		interval: cfg.Interval,
		clock:    cfg.Clock,
		turn:     make(chan struct{}, 1),
	}
	l.turn <- struct{}{}
	return l
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

type shutdownKey struct{}

// WithShutdown returns a copy of ctx whose Acquire waits also end when
// shutdown is done. It lets a poll cycle run on a context detached from
// process shutdown while its queued requests still give up on shutdown.
func WithShutdown(ctx, shutdown context.Context) context.Context {
	return context.WithValue(ctx, shutdownKey{}, shutdown)
}

// shutdown returns the context registered with WithShutdown, or a context
// that is never done.
func shutdown(ctx context.Context) context.Context {
	if s, ok := ctx.Value(shutdownKey{}).(context.Context); ok {
		return s
	}
	return context.Background()
}

// Acquire blocks until the caller may issue one upstream request. It returns
// ctx.Err() if ctx is canceled while waiting (or the WithShutdown context's
// error); in that case no grant is recorded.
func (l *Limiter) Acquire(ctx context.Context) error {
	start := l.clock.Now()
	stop := shutdown(ctx)

	select {
	case <-l.turn:
	case <-ctx.Done():
		return ctx.Err()
	case <-stop.Done():
		return stop.Err()
	}
	defer func() { l.turn <- struct{}{} }()

	l.mu.Lock()
	last := l.lastGrant
	l.mu.Unlock()

	if !last.IsZero() {
		if wait := last.Add(l.interval).Sub(l.clock.Now()); wait > 0 {
			timer := l.clock.NewTimer(wait)
			select {
			case <-timer.Chan():
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-stop.Done():
				timer.Stop()
				return stop.Err()
			}
		}
	}

	granted := l.clock.Now()
	waited := granted.Sub(start)

	l.mu.Lock()
	l.lastGrant = granted
	l.grants++
	l.totalWait += waited
	l.mu.Unlock()

	metrics.RateLimitWait.Observe(waited.Seconds())
	if l.onGrant != nil {
		l.onGrant(granted)
	}
	return nil
}

// Stats returns current counters.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Grants:    l.grants,
		TotalWait: l.totalWait,
		LastGrant: l.lastGrant,
	}
}
