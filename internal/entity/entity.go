// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

// Package entity maps projected views to the media-player attribute sets the
// remote-control device displays.
//
// Two entities are exposed:
//   - steam_currently_playing: the account's current game
//   - steam_friends: how many friends are online
package entity

import (
	"fmt"

	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/projector"
)

// Entity identifiers.
const (
	NowPlayingID = "steam_currently_playing"
	FriendsID    = "steam_friends"
)

// Media-player attribute keys.
const (
	AttrState    = "state"
	AttrTitle    = "media_title"
	AttrArtist   = "media_artist"
	AttrAlbum    = "media_album"
	AttrImageURL = "media_image_url"
	AttrStale    = "stale"
)

// Media-player states.
const (
	StatePlaying     = "PLAYING"
	StateOn          = "ON"
	StateOff         = "OFF"
	StateUnavailable = "UNAVAILABLE"
)

const (
	nowPlayingTitle = "Steam - Now Playing"
	friendsTitle    = "Steam - Friends"
)

// Attributes is one entity's attribute set.
type Attributes map[string]any

// Change is an attribute update for one entity.
type Change struct {
	EntityID   string     `json:"entity_id"`
	Attributes Attributes `json:"attributes"`
}

// NowPlayingAttributes returns the steam_currently_playing attributes.
func NowPlayingAttributes(v models.NowPlayingView) Attributes {
	attrs := Attributes{
		AttrTitle:    nowPlayingTitle,
		AttrImageURL: v.ArtworkURL,
		AttrStale:    v.Stale,
	}

	switch v.State {
	case models.PlayStatePlaying:
		attrs[AttrState] = StatePlaying
		attrs[AttrArtist] = v.Title
		attrs[AttrAlbum] = projector.TextPlayingOnSteam
	case models.PlayStateUnavailable:
		attrs[AttrState] = StateUnavailable
		attrs[AttrArtist] = v.Title
		attrs[AttrAlbum] = v.Subtitle
	default:
		attrs[AttrState] = StateOff
		if v.State == models.PlayStateOn {
			attrs[AttrState] = StateOn
		}
		attrs[AttrArtist] = projector.TextNoGame
		attrs[AttrAlbum] = projector.TextSteam
	}
	return attrs
}

// FriendsAttributes returns the steam_friends attributes.
func FriendsAttributes(v models.FriendsView) Attributes {
	attrs := Attributes{
		AttrTitle:    friendsTitle,
		AttrArtist:   v.DisplayText,
		AttrImageURL: projector.PlaceholderArtworkURL,
		AttrStale:    v.Stale,
	}

	if v.Available {
		attrs[AttrState] = StatePlaying
		attrs[AttrAlbum] = fmt.Sprintf("Total: %d", v.TotalCount)
	} else {
		attrs[AttrState] = StateOff
		attrs[AttrAlbum] = projector.TextSteam
	}
	return attrs
}

// Changes returns the updates for both entities.
func Changes(nowPlaying models.NowPlayingView, friends models.FriendsView) []Change {
	return []Change{
		{EntityID: NowPlayingID, Attributes: NowPlayingAttributes(nowPlaying)},
		{EntityID: FriendsID, Attributes: FriendsAttributes(friends)},
	}
}
