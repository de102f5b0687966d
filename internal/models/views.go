// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package models

import "time"

// PlayState is the device-facing media state of the now-playing entity.
type PlayState string

const (
	PlayStatePlaying     PlayState = "PLAYING"
	PlayStateOn          PlayState = "ON"  // online, no game
	PlayStateOff         PlayState = "OFF" // offline
	PlayStateUnavailable PlayState = "UNAVAILABLE"
)

// NowPlayingView is what the device shows for the account's current game.
type NowPlayingView struct {
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	ArtworkURL string    `json:"artwork_url"` // cover art or the Steam placeholder
	GameID     string    `json:"game_id,omitempty"`
	Playing    bool      `json:"playing"`
	State      PlayState `json:"state"`
	Stale      bool      `json:"stale"`
	Degraded   bool      `json:"degraded"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FriendsView is what the device shows for the friends entity.
type FriendsView struct {
	OnlineCount int       `json:"online_count"`
	TotalCount  int       `json:"total_count"`
	DisplayText string    `json:"display_text"` // "3 friends online"
	Available   bool      `json:"available"`
	Stale       bool      `json:"stale"`
	UpdatedAt   time.Time `json:"updated_at"`
}
