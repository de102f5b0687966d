// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package steam

// Steam Web API Response Structures
// Based on ISteamUser/GetPlayerSummaries/v0002 and ISteamUser/GetFriendList/v0001

// CommunityVisibilityPublic is the communityvisibilitystate value of a public profile.
// Every other value means the profile is private or friends-only to the key owner.
const CommunityVisibilityPublic = 3

// MaxSummaryBatch is the maximum number of Steam IDs GetPlayerSummaries accepts per call.
const MaxSummaryBatch = 100

// PlayerSummary is one entry of the GetPlayerSummaries players array.
// Only the fields Steamwatch reads are decoded.
type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	PersonaState             int    `json:"personastate"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	ProfileURL               string `json:"profileurl,omitempty"`
	AvatarFull               string `json:"avatarfull,omitempty"`
	LastLogoff               int64  `json:"lastlogoff,omitempty"`

	// Present only while the user is in game and the profile is visible.
	GameID        string `json:"gameid,omitempty"`
	GameExtraInfo string `json:"gameextrainfo,omitempty"` // Game display name
}

// InGame reports whether the summary names a running game.
func (p *PlayerSummary) InGame() bool {
	return p.GameID != ""
}

// Public reports whether the profile is publicly visible.
func (p *PlayerSummary) Public() bool {
	return p.CommunityVisibilityState == CommunityVisibilityPublic
}

// Online reports whether the persona state is anything but Offline.
func (p *PlayerSummary) Online() bool {
	return p.PersonaState > 0
}

type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

// Friend is one entry of the GetFriendList friends array.
type Friend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

// A private friends list is answered with 401, or with a body lacking the
// friendslist object.
type friendListResponse struct {
	FriendsList *struct {
		Friends []Friend `json:"friends"`
	} `json:"friendslist"`
}

// FriendsSummary is the derived friends fact: how many are online out of the total.
type FriendsSummary struct {
	Online int `json:"online"`
	Total  int `json:"total"`
}

var personaStateNames = [...]string{
	"Offline",
	"Online",
	"Busy",
	"Away",
	"Snooze",
	"Looking to trade",
	"Looking to play",
}

// PersonaStateName returns the display name of a Steam persona state.
func PersonaStateName(state int) string {
	if state < 0 || state >= len(personaStateNames) {
		return "Unknown"
	}
	return personaStateNames[state]
}
