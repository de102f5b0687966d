// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/metrics"
)

// ArtworkEntry is the cached cover art of one game.
type ArtworkEntry struct {
	GameID      string    `json:"game_id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	Data        []byte    `json:"data,omitempty"` // nil when only the URL is cached
	CachedAt    time.Time `json:"cached_at"`
}

// HasData reports whether image bytes are cached.
func (e ArtworkEntry) HasData() bool {
	return len(e.Data) > 0
}

// ArtworkFetchFunc resolves the artwork of one game.
type ArtworkFetchFunc func(ctx context.Context, gameID string) (ArtworkEntry, error)

// Artwork is a write-once cache of game artwork.
//
// An entry, once stored, is never replaced or evicted. Game ids are bounded
// by what the account plays, so the cache stays small.
type Artwork struct {
	store ArtworkStore
	clock clockwork.Clock
	group singleflight.Group
}

// NewArtwork creates an artwork cache over store. A nil store selects a
// MemoryArtworkStore, a nil clock the real clock.
func NewArtwork(store ArtworkStore, clock clockwork.Clock) *Artwork {
	if store == nil {
		store = NewMemoryArtworkStore()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	metrics.ArtworkEntries.Set(float64(store.Len()))
	return &Artwork{store: store, clock: clock}
}

// Get returns the artwork of gameID, calling fetch when it is not cached.
//
// Concurrent Gets for the same uncached id share one fetch. A failed fetch
// is returned to every waiter and nothing is stored.
func (a *Artwork) Get(ctx context.Context, gameID string, fetch ArtworkFetchFunc) (ArtworkEntry, error) {
	if e, ok := a.Lookup(gameID); ok {
		metrics.ArtworkFetches.WithLabelValues("hit").Inc()
		return e, nil
	}

	v, err, shared := a.group.Do(gameID, func() (any, error) {
		// A fetch for this id may have completed between Lookup and Do.
		if e, ok := a.Lookup(gameID); ok {
			return e, nil
		}

		e, err := fetch(ctx, gameID)
		if err != nil {
			return nil, err
		}
		e.GameID = gameID
		e.CachedAt = a.clock.Now()

		if err := a.store.Put(e); err != nil {
			// Still usable for this caller; the next Get fetches again.
			logging.Ctx(ctx).Warn().Err(err).Str("game_id", gameID).Msg("Failed to store artwork")
		}
		metrics.ArtworkEntries.Set(float64(a.store.Len()))
		return e, nil
	})
	if err != nil {
		metrics.ArtworkFetches.WithLabelValues("error").Inc()
		return ArtworkEntry{}, fmt.Errorf("artwork %s: %w", gameID, err)
	}

	if shared {
		metrics.ArtworkFetches.WithLabelValues("shared").Inc()
	} else {
		metrics.ArtworkFetches.WithLabelValues("fetched").Inc()
	}
	return v.(ArtworkEntry), nil
}

// Lookup returns the cached artwork of gameID without fetching.
func (a *Artwork) Lookup(gameID string) (ArtworkEntry, bool) {
	e, err := a.store.Get(gameID)
	if err != nil {
		if !errors.Is(err, ErrNoValue) {
			logging.Warn().Err(err).Str("game_id", gameID).Msg("Artwork store read failed")
		}
		return ArtworkEntry{}, false
	}
	return e, true
}

// Len returns the number of cached games.
func (a *Artwork) Len() int {
	return a.store.Len()
}
