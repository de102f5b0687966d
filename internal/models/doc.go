// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package models defines the data structures shared between the poller, the
projector and the outer surfaces (HTTP API, WebSocket hub).

Key Components:

  - Snapshot: merged result of one poll cycle
  - PlayerSnapshot, FriendsSnapshot: per-field results with their Source
  - NowPlayingView, FriendsView: device-facing projections of a Snapshot
  - APIResponse: standardized HTTP API response wrapper

Model Categories:

1. Poll Models:
  - Snapshot is owned by the poller and published by pointer. Consumers
    must treat it as read-only.
  - Source records where a field came from: LIVE (fetched this cycle),
    CACHED (an earlier fetch, the latest one failed) or UNAVAILABLE
    (privacy-restricted).

2. View Models:
  - Built by projector.Project, never by hand.
  - Views carry no error strings. Degradation is reported through the
    Stale and Degraded flags.

3. API Models:
  - APIResponse, APIError and Metadata wrap every JSON response.

JSON Serialization:

All models use snake_case JSON tags and are encoded with goccy/go-json.
*/
package models
