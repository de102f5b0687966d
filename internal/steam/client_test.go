// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/steamwatch/internal/ratelimit"
)

const testSteamID = "76561197960287930"

type staticCreds struct {
	key, id string
}

func (s staticCreds) Credentials() (string, string) { return s.key, s.id }

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(ClientConfig{
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Credentials: staticCreds{key: "test-key", id: testSteamID},
		Limiter:     ratelimit.New(ratelimit.Config{Interval: time.Millisecond}),
	})
	c.baseDelay = time.Millisecond
	return c
}

func writeSummaries(w http.ResponseWriter, players ...PlayerSummary) {
	var resp playerSummariesResponse
	resp.Response.Players = players
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestGetPlayerSummary(t *testing.T) {
	t.Parallel()

	t.Run("in game", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != pathPlayerSummaries {
				t.Errorf("path = %s, want %s", r.URL.Path, pathPlayerSummaries)
			}
			q := r.URL.Query()
			if q.Get("key") != "test-key" || q.Get("steamids") != testSteamID || q.Get("format") != "json" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			writeSummaries(w, PlayerSummary{
				SteamID:                  testSteamID,
				PersonaName:              "gaben",
				PersonaState:             1,
				CommunityVisibilityState: CommunityVisibilityPublic,
				GameID:                   "440",
				GameExtraInfo:            "Team Fortress 2",
			})
		}))
		defer server.Close()

		player, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID)
		if err != nil {
			t.Fatalf("GetPlayerSummary() error = %v", err)
		}
		if !player.InGame() || player.GameID != "440" || player.GameExtraInfo != "Team Fortress 2" {
			t.Errorf("unexpected player: %+v", player)
		}
	})

	t.Run("not playing is not an error", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeSummaries(w, PlayerSummary{SteamID: testSteamID, PersonaState: 3, CommunityVisibilityState: 3})
		}))
		defer server.Close()

		player, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID)
		if err != nil {
			t.Fatalf("GetPlayerSummary() error = %v", err)
		}
		if player.InGame() {
			t.Error("expected InGame() = false")
		}
	})

	t.Run("private profile without game", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeSummaries(w, PlayerSummary{SteamID: testSteamID, CommunityVisibilityState: 1})
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID)
		if !IsPrivacy(err) {
			t.Errorf("error = %v, want privacy failure", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeSummaries(w)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID)
		if !IsPrivacy(err) {
			t.Errorf("error = %v, want privacy failure", err)
		}
	})
}

func TestGetPlayerSummary_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, "<html>Unauthorized</html>", KindAuth},
		{"forbidden", http.StatusForbidden, "<html>Forbidden</html>", KindAuth},
		{"service unavailable", http.StatusServiceUnavailable, "", KindTransient},
		{"bad gateway", http.StatusBadGateway, "", KindTransient},
		{"internal error", http.StatusInternalServerError, "", KindTransient},
		{"not found", http.StatusNotFound, "", KindTransient},
		{"malformed body", http.StatusOK, `{"response": {"players": [`, KindTransient},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID)
			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("error = %v (%T), want *Error", err, err)
			}
			if se.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", se.Kind, tt.want)
			}
			if tt.status != http.StatusOK && se.Status != tt.status {
				t.Errorf("Status = %d, want %d", se.Status, tt.status)
			}
		})
	}
}

func TestGetPlayerSummary_NetworkErrorIsTransientAndRedacted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).GetPlayerSummary(context.Background(), testSteamID)
	if !IsTransient(err) {
		t.Fatalf("error = %v, want transient", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Errorf("error leaks API key: %v", err)
	}
}

func TestRequest_MissingCredentials(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.creds = staticCreds{}

	_, err := c.GetPlayerSummary(context.Background(), testSteamID)
	if !IsAuth(err) || !errors.Is(err, ErrNoCredentials) {
		t.Errorf("error = %v, want auth failure wrapping ErrNoCredentials", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func TestRequest_RetriesTooManyRequests(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after retry", func(t *testing.T) {
		t.Parallel()
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeSummaries(w, PlayerSummary{SteamID: testSteamID, CommunityVisibilityState: 3})
		}))
		defer server.Close()

		if _, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID); err != nil {
			t.Fatalf("GetPlayerSummary() error = %v", err)
		}
		if attempts.Load() != 3 {
			t.Errorf("attempts = %d, want 3", attempts.Load())
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetPlayerSummary(context.Background(), testSteamID)
		if !IsTransient(err) {
			t.Errorf("error = %v, want transient", err)
		}
		if attempts.Load() != 4 {
			t.Errorf("attempts = %d, want 4 (1 + 3 retries)", attempts.Load())
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Duration{
		"5":                             5 * time.Second,
		" 2 ":                           2 * time.Second,
		"":                              -1,
		"0":                             -1,
		"Wed, 21 Oct 2026 07:28:00 GMT": -1,
	}
	for in, want := range tests {
		if got := parseRetryAfter(in); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGetFriendList(t *testing.T) {
	t.Parallel()

	t.Run("public list", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("relationship") != "friend" {
				t.Errorf("relationship = %q", r.URL.Query().Get("relationship"))
			}
			fmt.Fprint(w, `{"friendslist":{"friends":[{"steamid":"1","relationship":"friend","friend_since":1}]}}`)
		}))
		defer server.Close()

		friends, err := newTestClient(t, server.URL).GetFriendList(context.Background(), testSteamID)
		if err != nil {
			t.Fatalf("GetFriendList() error = %v", err)
		}
		if len(friends) != 1 || friends[0].SteamID != "1" {
			t.Errorf("friends = %+v", friends)
		}
	})

	t.Run("private list HTTP 403", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetFriendList(context.Background(), testSteamID)
		if !IsPrivacy(err) {
			t.Errorf("error = %v, want privacy failure", err)
		}
	})

	t.Run("rejected key HTTP 401", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetFriendList(context.Background(), testSteamID)
		if !IsAuth(err) {
			t.Errorf("error = %v, want auth failure", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).GetFriendList(context.Background(), testSteamID)
		if !IsPrivacy(err) {
			t.Errorf("error = %v, want privacy failure", err)
		}
	})
}

func TestCountOnlineFriends_Batches(t *testing.T) {
	t.Parallel()

	const friendCount = 150
	var summaryCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathFriendList:
			friends := make([]Friend, friendCount)
			for i := range friends {
				friends[i] = Friend{SteamID: fmt.Sprint(i), Relationship: "friend"}
			}
			var resp friendListResponse
			resp.FriendsList = &struct {
				Friends []Friend `json:"friends"`
			}{Friends: friends}
			_ = json.NewEncoder(w).Encode(resp)
		case pathPlayerSummaries:
			summaryCalls.Add(1)
			ids := strings.Split(r.URL.Query().Get("steamids"), ",")
			if len(ids) > MaxSummaryBatch {
				t.Errorf("batch of %d ids exceeds %d", len(ids), MaxSummaryBatch)
			}
			players := make([]PlayerSummary, len(ids))
			for i, id := range ids {
				players[i] = PlayerSummary{SteamID: id}
				// Every third friend is online.
				var n int
				fmt.Sscan(id, &n)
				if n%3 == 0 {
					players[i].PersonaState = 1
				}
			}
			writeSummaries(w, players...)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	got, err := newTestClient(t, server.URL).CountOnlineFriends(context.Background(), testSteamID)
	if err != nil {
		t.Fatalf("CountOnlineFriends() error = %v", err)
	}
	if got.Total != friendCount {
		t.Errorf("Total = %d, want %d", got.Total, friendCount)
	}
	if got.Online != 50 {
		t.Errorf("Online = %d, want 50", got.Online)
	}
	if summaryCalls.Load() != 2 {
		t.Errorf("summary calls = %d, want 2", summaryCalls.Load())
	}
}

func TestCountOnlineFriends_NoFriends(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathFriendList {
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"friendslist":{"friends":[]}}`)
	}))
	defer server.Close()

	got, err := newTestClient(t, server.URL).CountOnlineFriends(context.Background(), testSteamID)
	if err != nil {
		t.Fatalf("CountOnlineFriends() error = %v", err)
	}
	if got != (FriendsSummary{}) {
		t.Errorf("got %+v, want zero summary", got)
	}
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens on transient failures", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		for i := 0; i < 5; i++ {
			_, _ = c.GetPlayerSummary(context.Background(), testSteamID)
		}
		if c.BreakerState() != "open" {
			t.Fatalf("BreakerState() = %s, want open", c.BreakerState())
		}

		_, err := c.GetPlayerSummary(context.Background(), testSteamID)
		if !IsTransient(err) {
			t.Errorf("error = %v, want transient", err)
		}
		if hits.Load() != 5 {
			t.Errorf("server hits = %d, want 5 (open circuit must not call upstream)", hits.Load())
		}
	})

	t.Run("auth failures do not trip", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		for i := 0; i < 8; i++ {
			if _, err := c.GetPlayerSummary(context.Background(), testSteamID); !IsAuth(err) {
				t.Fatalf("call %d: error = %v, want auth", i, err)
			}
		}
		if c.BreakerState() != "closed" {
			t.Errorf("BreakerState() = %s, want closed", c.BreakerState())
		}
	})

	t.Run("canceled callers do not trip", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeSummaries(w, PlayerSummary{SteamID: testSteamID, CommunityVisibilityState: CommunityVisibilityPublic})
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		for i := 0; i < 8; i++ {
			if _, err := c.GetPlayerSummary(ctx, testSteamID); !errors.Is(err, context.Canceled) {
				t.Fatalf("call %d: error = %v, want context.Canceled", i, err)
			}
		}
		if c.BreakerState() != "closed" {
			t.Fatalf("BreakerState() = %s, want closed", c.BreakerState())
		}
		if _, err := c.GetPlayerSummary(context.Background(), testSteamID); err != nil {
			t.Errorf("call after cancellations: error = %v", err)
		}
	})
}

func TestPersonaStateName(t *testing.T) {
	t.Parallel()

	tests := map[int]string{0: "Offline", 1: "Online", 4: "Snooze", 6: "Looking to play", 7: "Unknown", -1: "Unknown"}
	for state, want := range tests {
		if got := PersonaStateName(state); got != want {
			t.Errorf("PersonaStateName(%d) = %q, want %q", state, got, want)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	if KindOf(nil) != 0 {
		t.Error("KindOf(nil) should be 0")
	}
	if KindOf(errors.New("boom")) != KindTransient {
		t.Error("foreign errors should classify as transient")
	}
	wrapped := fmt.Errorf("cycle: %w", &Error{Kind: KindPrivacy, Op: opFriendList})
	if !IsPrivacy(wrapped) {
		t.Error("wrapped privacy error not detected")
	}
	if IsTransient(nil) {
		t.Error("IsTransient(nil) should be false")
	}
}
