// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package entity

import (
	"testing"

	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/projector"
)

func TestNowPlayingAttributes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		view              models.NowPlayingView
		state, art, album string
	}{
		{
			name:  "playing",
			view:  models.NowPlayingView{Title: "Team Fortress 2", State: models.PlayStatePlaying, ArtworkURL: "https://cdn.example/440.jpg", Playing: true},
			state: StatePlaying, art: "Team Fortress 2", album: "Playing on Steam",
		},
		{
			name:  "online idle",
			view:  models.NowPlayingView{Title: projector.TextNoGame, Subtitle: "Online", State: models.PlayStateOn},
			state: StateOn, art: "No game detected", album: "Steam",
		},
		{
			name:  "offline",
			view:  models.NowPlayingView{Title: projector.TextNoGame, State: models.PlayStateOff},
			state: StateOff, art: "No game detected", album: "Steam",
		},
		{
			name:  "private profile",
			view:  models.NowPlayingView{Title: projector.TextProfileUnavailable, Subtitle: projector.TextProfilePrivate, State: models.PlayStateUnavailable},
			state: StateUnavailable, art: projector.TextProfileUnavailable, album: projector.TextProfilePrivate,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			attrs := NowPlayingAttributes(tt.view)
			if attrs[AttrState] != tt.state {
				t.Errorf("state = %v, want %v", attrs[AttrState], tt.state)
			}
			if attrs[AttrArtist] != tt.art {
				t.Errorf("media_artist = %v, want %v", attrs[AttrArtist], tt.art)
			}
			if attrs[AttrAlbum] != tt.album {
				t.Errorf("media_album = %v, want %v", attrs[AttrAlbum], tt.album)
			}
			if attrs[AttrTitle] != "Steam - Now Playing" {
				t.Errorf("media_title = %v", attrs[AttrTitle])
			}
			if attrs[AttrImageURL] != tt.view.ArtworkURL {
				t.Errorf("media_image_url = %v", attrs[AttrImageURL])
			}
		})
	}
}

func TestFriendsAttributes(t *testing.T) {
	t.Parallel()

	attrs := FriendsAttributes(models.FriendsView{OnlineCount: 3, TotalCount: 42, DisplayText: "3 friends online", Available: true})
	if attrs[AttrState] != StatePlaying || attrs[AttrArtist] != "3 friends online" || attrs[AttrAlbum] != "Total: 42" {
		t.Errorf("available attrs = %v", attrs)
	}

	attrs = FriendsAttributes(models.FriendsView{DisplayText: projector.TextFriendsUnavailable})
	if attrs[AttrState] != StateOff || attrs[AttrArtist] != "Friends list unavailable" || attrs[AttrAlbum] != "Steam" {
		t.Errorf("unavailable attrs = %v", attrs)
	}
	if attrs[AttrImageURL] != projector.PlaceholderArtworkURL {
		t.Errorf("media_image_url = %v", attrs[AttrImageURL])
	}
}

func TestChanges(t *testing.T) {
	t.Parallel()

	changes := Changes(models.NowPlayingView{State: models.PlayStateOff}, models.FriendsView{})
	if len(changes) != 2 || changes[0].EntityID != NowPlayingID || changes[1].EntityID != FriendsID {
		t.Errorf("Changes() = %+v", changes)
	}
}
