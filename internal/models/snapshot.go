// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package models

import "time"

// Source tells where a snapshot field came from.
type Source string

const (
	SourceLive        Source = "LIVE"        // fetched this cycle
	SourceCached      Source = "CACHED"      // earlier fetch, latest one failed
	SourceUnavailable Source = "UNAVAILABLE" // privacy-restricted
)

// PlayerSnapshot is the account's presence as of the last poll cycle.
type PlayerSnapshot struct {
	PlayerID         string    `json:"player_id"`
	PersonaName      string    `json:"persona_name,omitempty"`
	PersonaState     int       `json:"persona_state"`
	PersonaStateName string    `json:"persona_state_name,omitempty"` // "Online", "Away", ...
	IsPlaying        bool      `json:"is_playing"`
	GameID           string    `json:"game_id,omitempty"`
	GameName         string    `json:"game_name,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	LastFetchedAt    time.Time `json:"last_fetched_at"`
	Source           Source    `json:"source"`
}

// FriendsSnapshot is the online friends count as of the last poll cycle.
type FriendsSnapshot struct {
	OnlineCount   int       `json:"online_count"`
	TotalCount    int       `json:"total_count"`
	LastFetchedAt time.Time `json:"last_fetched_at"`
	Source        Source    `json:"source"`
}

// Snapshot is the merged result of one poll cycle.
type Snapshot struct {
	Player  *PlayerSnapshot  `json:"player"`  // nil until a summary was ever obtained
	Friends *FriendsSnapshot `json:"friends"` // nil until a friends result was ever obtained

	// Degraded is set while the upstream rejects the configured credentials.
	// Cached data keeps being shown.
	Degraded       bool   `json:"degraded"`
	DegradedReason string `json:"degraded_reason,omitempty"`

	Cycle         uint64    `json:"cycle"`
	Trigger       string    `json:"trigger"` // startup, timer, manual
	CorrelationID string    `json:"correlation_id"`
	PublishedAt   time.Time `json:"published_at"`
}

// Stale reports whether any field is served from an earlier cycle.
func (s *Snapshot) Stale() bool {
	if s == nil {
		return false
	}
	return (s.Player != nil && s.Player.Source == SourceCached) ||
		(s.Friends != nil && s.Friends.Source == SourceCached)
}
