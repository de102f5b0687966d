// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package cache keeps the last known Steam data so a failing upstream never
blanks the device display.

# Overview

Two caches live here:
  - Stale[T]: per-key response cache with stale fallback (player summary,
    friends counts)
  - Artwork: write-once cover art cache keyed by game id

Neither cache expires entries. A response slot is only replaced by a newer
successful fetch (or by the UNAVAILABLE marker for a privacy failure), and
artwork for a game id is stored once and kept for the life of the process.

# Response Cache

GetOrRefresh always calls fetch and decides what to return from the result:

	fetch ok                     -> store value, stale=false
	fetch privacy-restricted     -> store UNAVAILABLE marker
	fetch failed, value present  -> last value, stale=true, no error
	fetch failed, nothing cached -> fetch error

Which errors count as privacy-restricted is decided by the Unavailable
classifier passed in StaleConfig, so this package does not depend on the
upstream client.

Refreshes of one key are serialized by a per-key mutex. Different keys
refresh independently.

# Artwork Cache

Concurrent Get calls for an uncached game id are collapsed with
golang.org/x/sync/singleflight into one fetch. Failed fetches are not
stored, so the next Get retries.

Lookup is the read-only variant used by the projector: it never fetches.

# Persistence

Both caches can be backed by BadgerDB:
  - BadgerArtworkStore keeps artwork (URL and optional image bytes) across
    restarts
  - BadgerMirror keeps the last good response per key; Stale.Restore loads
    it back marked stale

Without a data directory the artwork cache uses MemoryArtworkStore and the
response cache is memory only.

# Thread Safety

Every exported type in this package is safe for concurrent use.
*/
package cache
