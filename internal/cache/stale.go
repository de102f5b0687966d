// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/metrics"
)

// ErrNoValue is returned when a key has never held a value.
var ErrNoValue = errors.New("cache: no value")

// Lookup results recorded in metrics.CacheLookups.
const (
	resultFresh       = "fresh"
	resultStale       = "stale"
	resultUnavailable = "unavailable"
	resultMiss        = "miss"
)

// Entry is the outcome of a cache read.
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time // time of the fetch that produced Value (or the marker)

	// Stale is set when Value comes from an earlier fetch because the latest
	// one failed.
	Stale bool

	// Unavailable marks a privacy-restricted resource. Value is the zero
	// value.
	Unavailable bool

	// Cause is the failure behind a stale or unavailable entry.
	Cause error
}

// StaleConfig configures a Stale cache.
type StaleConfig struct {
	// Name labels the cache in logs and metrics ("player", "friends").
	Name string

	// Unavailable reports whether a fetch error means the resource is
	// privacy-restricted. nil treats every error as a plain failure.
	Unavailable func(error) bool

	// Mirror persists the last successful value per key. Optional.
	Mirror Mirror

	// Clock stamps FetchedAt. Default: the real clock.
	Clock clockwork.Clock
}

// Mirror persists raw values outside the process.
type Mirror interface {
	// Save stores data under key, replacing any earlier value.
	Save(key string, data []byte) error
	// Load returns the data stored under key, or ErrNoValue.
	Load(key string) ([]byte, error)
}

// StaleStats is a point-in-time view of cache effectiveness.
type StaleStats struct {
	Hits        uint64 // successful fetches
	StaleServes uint64
	Unavailable uint64
	Misses      uint64 // failures with nothing cached
	Keys        int
}

// Stale is a per-key response cache that serves the last good value when a
// refresh fails.
type Stale[T any] struct {
	name        string
	unavailable func(error) bool
	mirror      Mirror
	clock       clockwork.Clock

	mu    sync.Mutex // guards slots
	slots map[string]*slot[T]

	hits        atomic.Uint64
	staleServes atomic.Uint64
	unavail     atomic.Uint64
	misses      atomic.Uint64
}

type slot[T any] struct {
	mu    sync.Mutex // serializes refreshes of this key
	entry Entry[T]
	set   bool
}

// persisted is the Mirror record format.
type persisted[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewStale creates an empty Stale cache.
func NewStale[T any](cfg StaleConfig) *Stale[T] {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Stale[T]{
		name:        cfg.Name,
		unavailable: cfg.Unavailable,
		mirror:      cfg.Mirror,
		clock:       cfg.Clock,
		slots:       make(map[string]*slot[T]),
	}
}

func (c *Stale[T]) slot(key string) *slot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[key]
	if !ok {
		s = &slot[T]{}
		c.slots[key] = s
	}
	return s
}

// GetOrRefresh calls fetch and returns its result, falling back to the last
// stored value when fetch fails.
//
// A returned error means fetch failed and key has never held a value or an
// UNAVAILABLE marker. Every other outcome is reported through Entry.
func (c *Stale[T]) GetOrRefresh(ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], error) {
	s := c.slot(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := fetch(ctx)
	now := c.clock.Now()

	switch {
	case err == nil:
		s.entry = Entry[T]{Value: value, FetchedAt: now}
		s.set = true
		c.hits.Add(1)
		c.record(resultFresh)
		c.save(ctx, key, s.entry)
		return s.entry, nil

	case c.unavailable != nil && c.unavailable(err):
		s.entry = Entry[T]{FetchedAt: now, Unavailable: true, Cause: err}
		s.set = true
		c.unavail.Add(1)
		c.record(resultUnavailable)
		return s.entry, nil

	case s.set:
		s.entry.Stale = true
		s.entry.Cause = err
		c.staleServes.Add(1)
		c.record(resultStale)
		logging.Ctx(ctx).Debug().
			Str("cache", c.name).
			Str("key", key).
			Time("fetched_at", s.entry.FetchedAt).
			Err(err).
			Msg("Serving stale value")
		return s.entry, nil

	default:
		c.misses.Add(1)
		c.record(resultMiss)
		return Entry[T]{Cause: err}, err
	}
}

// Peek returns the current entry for key without fetching.
func (c *Stale[T]) Peek(key string) (Entry[T], bool) {
	c.mu.Lock()
	s, ok := c.slots[key]
	c.mu.Unlock()
	if !ok {
		return Entry[T]{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry, s.set
}

// Restore loads the mirrored value of key into an empty slot, marked stale.
// It reports whether a value was restored. A slot that already holds a value
// is left untouched.
func (c *Stale[T]) Restore(key string) (bool, error) {
	if c.mirror == nil {
		return false, nil
	}

	data, err := c.mirror.Load(c.mirrorKey(key))
	if errors.Is(err, ErrNoValue) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s/%s: %w", c.name, key, err)
	}

	var rec persisted[T]
	if err := json.Unmarshal(data, &rec); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", c.name, key, err)
	}

	s := c.slot(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return false, nil
	}
	s.entry = Entry[T]{Value: rec.Value, FetchedAt: rec.FetchedAt, Stale: true}
	s.set = true
	return true, nil
}

// Stats returns cache counters.
func (c *Stale[T]) Stats() StaleStats {
	c.mu.Lock()
	keys := len(c.slots)
	c.mu.Unlock()

	return StaleStats{
		Hits:        c.hits.Load(),
		StaleServes: c.staleServes.Load(),
		Unavailable: c.unavail.Load(),
		Misses:      c.misses.Load(),
		Keys:        keys,
	}
}

// save mirrors a fresh entry. Mirror failures are logged and otherwise
// ignored: the in-memory value is authoritative.
func (c *Stale[T]) save(ctx context.Context, key string, e Entry[T]) {
	if c.mirror == nil {
		return
	}

	data, err := json.Marshal(persisted[T]{Value: e.Value, FetchedAt: e.FetchedAt})
	if err == nil {
		err = c.mirror.Save(c.mirrorKey(key), data)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Str("key", key).Msg("Failed to mirror cache entry")
	}
}

func (c *Stale[T]) mirrorKey(key string) string {
	return c.name + ":" + key
}

func (c *Stale[T]) record(result string) {
	metrics.CacheLookups.WithLabelValues(c.name, result).Inc()
}
