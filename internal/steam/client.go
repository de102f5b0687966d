// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
client.go - Steam Web API Client

The client issues the read-only ISteamUser calls Steamwatch needs and turns
every outcome into either a parsed record or a typed *Error.

Operations:
  - GetPlayerSummary(): presence and current game of one account
  - GetPlayerSummaries(): batched presence lookup (<= 100 IDs per call)
  - GetFriendList(): friend relationships of one account
  - CountOnlineFriends(): friend list plus batched summaries, reduced to counts

Every HTTP request, including each 429 retry and each friends batch, first
acquires the shared ratelimit.Limiter. The API key is read from the
CredentialProvider on each request so a rotated key applies without restart.

Related Files:
  - request.go: request execution, retries and status classification
  - circuit_breaker.go: gobreaker wrapper
  - artwork.go: CDN artwork fetcher
*/

//nolint:staticcheck // File documentation, not package doc
package steam

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/steamwatch/internal/config"
	"github.com/tomtom215/steamwatch/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public Steam Web API endpoint.
	DefaultBaseURL = "https://api.steampowered.com"

	pathPlayerSummaries = "/ISteamUser/GetPlayerSummaries/v0002/"
	pathFriendList      = "/ISteamUser/GetFriendList/v0001/"

	opPlayerSummaries = "GetPlayerSummaries"
	opFriendList      = "GetFriendList"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials config.CredentialProvider
	Limiter     *ratelimit.Limiter

	// Optional
	HTTPClient *http.Client
	Clock      clockwork.Clock
	MaxRetries int // HTTP 429 retries, default 3
	Breaker    BreakerConfig
}

// Client talks to the Steam Web API.
type Client struct {
	baseURL    string
	creds      config.CredentialProvider
	limiter    *ratelimit.Limiter
	httpClient *http.Client
	clock      clockwork.Clock
	maxRetries int
	baseDelay  time.Duration
	breaker    *breaker
}

// NewClient creates a Client. Credentials and Limiter are required.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		creds:      cfg.Credentials,
		limiter:    cfg.Limiter,
		httpClient: cfg.HTTPClient,
		clock:      cfg.Clock,
		maxRetries: cfg.MaxRetries,
		baseDelay:  time.Second,
		breaker:    newBreaker("steam-web-api", cfg.Breaker),
	}
}

// BreakerState returns "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// GetPlayerSummary returns the summary of steamID.
//
// A summary without a game is the normal "not playing" answer, not an error.
// KindPrivacy is returned when Steam knows nothing about the account or the
// profile is private and reports no game.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	players, err := c.GetPlayerSummaries(ctx, []string{steamID})
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, &Error{Kind: KindPrivacy, Op: opPlayerSummaries, Err: errNoPlayer(steamID)}
	}

	player := players[0]
	if !player.Public() && !player.InGame() {
		return nil, &Error{Kind: KindPrivacy, Op: opPlayerSummaries, Err: errPrivateProfile(steamID)}
	}
	return &player, nil
}

// GetPlayerSummaries returns summaries for up to MaxSummaryBatch IDs per
// request, issuing as many requests as needed.
func (c *Client) GetPlayerSummaries(ctx context.Context, steamIDs []string) ([]PlayerSummary, error) {
	players := make([]PlayerSummary, 0, len(steamIDs))
	for start := 0; start < len(steamIDs); start += MaxSummaryBatch {
		end := start + MaxSummaryBatch
		if end > len(steamIDs) {
			end = len(steamIDs)
		}

		var resp playerSummariesResponse
		err := c.doRequest(ctx, requestConfig{
			op:        opPlayerSummaries,
			path:      pathPlayerSummaries,
			query:     url.Values{"steamids": {joinIDs(steamIDs[start:end])}},
			forbidden: KindAuth,
		}, &resp)
		if err != nil {
			return nil, err
		}
		players = append(players, resp.Response.Players...)
	}
	return players, nil
}

// GetFriendList returns the friends of steamID.
//
// A private friends list is answered with 403 or with a body that has no
// friendslist; both are KindPrivacy. 401 means the key was rejected and is
// KindAuth like on every other endpoint.
func (c *Client) GetFriendList(ctx context.Context, steamID string) ([]Friend, error) {
	var resp friendListResponse
	err := c.doRequest(ctx, requestConfig{
		op:   opFriendList,
		path: pathFriendList,
		query: url.Values{
			"steamid":      {steamID},
			"relationship": {"friend"},
		},
		forbidden: KindPrivacy,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.FriendsList == nil {
		return nil, &Error{Kind: KindPrivacy, Op: opFriendList, Status: http.StatusOK, Err: errNoFriendsList}
	}
	return resp.FriendsList.Friends, nil
}

// CountOnlineFriends returns how many of steamID's friends are online.
func (c *Client) CountOnlineFriends(ctx context.Context, steamID string) (FriendsSummary, error) {
	friends, err := c.GetFriendList(ctx, steamID)
	if err != nil {
		return FriendsSummary{}, err
	}
	if len(friends) == 0 {
		return FriendsSummary{}, nil
	}

	ids := make([]string, len(friends))
	for i, f := range friends {
		ids[i] = f.SteamID
	}
	players, err := c.GetPlayerSummaries(ctx, ids)
	if err != nil {
		return FriendsSummary{}, err
	}

	summary := FriendsSummary{Total: len(friends)}
	for i := range players {
		if players[i].Online() {
			summary.Online++
		}
	}
	return summary, nil
}
