// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

// Package projector turns a poll Snapshot into the views the device shows.
//
// Project is a pure function: it performs no upstream calls, mutates
// nothing and reads artwork only through the read-only ArtworkLookup.
package projector

import (
	"fmt"

	"github.com/tomtom215/steamwatch/internal/cache"
	"github.com/tomtom215/steamwatch/internal/models"
)

// PlaceholderArtworkURL is shown when no cover art is known.
const PlaceholderArtworkURL = "https://store.steampowered.com/favicon.ico"

// Display texts.
const (
	TextNoGame              = "No game detected"
	TextPlayingOnSteam      = "Playing on Steam"
	TextSteam               = "Steam"
	TextProfileUnavailable  = "Profile unavailable"
	TextProfilePrivate      = "Steam profile is private"
	TextCheckAPIKey         = "Check Steam API key"
	TextSteamUnavailable    = "Steam unavailable"
	TextFriendsUnavailable  = "Friends list unavailable"
	TextNoFriendsData       = "No friends data"
	friendsOnlineTextFormat = "%d friends online"
)

// ArtworkLookup reads cached artwork without fetching.
type ArtworkLookup interface {
	Lookup(gameID string) (cache.ArtworkEntry, bool)
}

// Project builds both views from snap. A nil snap yields the views shown
// before the first poll cycle completes. artwork may be nil.
func Project(snap *models.Snapshot, artwork ArtworkLookup) (models.NowPlayingView, models.FriendsView) {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	return nowPlaying(snap, artwork), friends(snap)
}

func nowPlaying(snap *models.Snapshot, artwork ArtworkLookup) models.NowPlayingView {
	view := models.NowPlayingView{
		ArtworkURL: PlaceholderArtworkURL,
		Degraded:   snap.Degraded,
		UpdatedAt:  snap.PublishedAt,
	}

	p := snap.Player
	switch {
	case p == nil && snap.Degraded:
		view.Title = TextSteamUnavailable
		view.Subtitle = TextCheckAPIKey
		view.State = models.PlayStateUnavailable

	case p == nil:
		view.Title = TextNoGame
		view.Subtitle = TextSteam
		view.State = models.PlayStateUnavailable

	case p.Source == models.SourceUnavailable:
		view.Title = TextProfileUnavailable
		view.Subtitle = TextProfilePrivate
		view.State = models.PlayStateUnavailable

	case p.IsPlaying:
		view.Title = p.GameName
		if view.Title == "" {
			view.Title = "App " + p.GameID
		}
		view.Subtitle = TextPlayingOnSteam
		view.GameID = p.GameID
		view.Playing = true
		view.State = models.PlayStatePlaying
		view.Stale = p.Source == models.SourceCached
		if artwork != nil {
			if e, ok := artwork.Lookup(p.GameID); ok && e.URL != "" {
				view.ArtworkURL = e.URL
			}
		}

	default:
		view.Title = TextNoGame
		view.Subtitle = p.PersonaStateName
		if view.Subtitle == "" {
			view.Subtitle = TextSteam
		}
		view.State = models.PlayStateOn
		if p.PersonaState == 0 {
			view.State = models.PlayStateOff
		}
		view.Stale = p.Source == models.SourceCached
	}

	return view
}

func friends(snap *models.Snapshot) models.FriendsView {
	view := models.FriendsView{UpdatedAt: snap.PublishedAt}

	f := snap.Friends
	switch {
	case f == nil:
		view.DisplayText = TextNoFriendsData
	case f.Source == models.SourceUnavailable:
		view.DisplayText = TextFriendsUnavailable
	default:
		view.OnlineCount = f.OnlineCount
		view.TotalCount = f.TotalCount
		view.DisplayText = fmt.Sprintf(friendsOnlineTextFormat, f.OnlineCount)
		view.Available = true
		view.Stale = f.Source == models.SourceCached
	}

	return view
}
