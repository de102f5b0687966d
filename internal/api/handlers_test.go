// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/steamwatch/internal/cache"
	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/poller"
	ws "github.com/tomtom215/steamwatch/internal/websocket"
)

// fakePoller serves fixed views and counts refresh requests.
type fakePoller struct {
	mu         sync.Mutex
	snap       *models.Snapshot
	nowPlaying models.NowPlayingView
	friends    models.FriendsView
	accept     bool
	refreshes  int
}

func (f *fakePoller) NowPlayingView() models.NowPlayingView { return f.nowPlaying }
func (f *fakePoller) FriendsView() models.FriendsView       { return f.friends }
func (f *fakePoller) Snapshot() *models.Snapshot            { return f.snap }
func (f *fakePoller) Stats() poller.Stats                   { return poller.Stats{State: "IDLE"} }

func (f *fakePoller) TriggerManualRefresh() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.accept
}

type fakeBreaker string

func (b fakeBreaker) BreakerState() string { return string(b) }

func newTestHandler(p *fakePoller, artwork ArtworkLookup) *Handler {
	if artwork == nil {
		artwork = cache.NewArtwork(nil, nil)
	}
	return NewHandler(HandlerConfig{Poller: p, Artwork: artwork, Version: "test"})
}

func serve(t *testing.T, h *Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	NewRouter(h, nil).SetupChi().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// decodeBody decodes the envelope and re-decodes Data into data when non-nil.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, data any) models.APIResponse {
	t.Helper()
	var raw struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	if data != nil {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return raw.APIResponse
}

func publishedSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Player:      &models.PlayerSnapshot{IsPlaying: true, GameID: "440", GameName: "Team Fortress 2", Source: models.SourceCached},
		Friends:     &models.FriendsSnapshot{OnlineCount: 3, TotalCount: 10, Source: models.SourceLive},
		Cycle:       4,
		PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNowPlaying(t *testing.T) {
	t.Parallel()

	p := &fakePoller{
		snap:       publishedSnapshot(),
		nowPlaying: models.NowPlayingView{Title: "Team Fortress 2", GameID: "440", Playing: true, State: models.PlayStatePlaying, Stale: true},
	}
	w := serve(t, newTestHandler(p, nil), http.MethodGet, "/api/v1/now-playing")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var view models.NowPlayingView
	resp := decodeBody(t, w, &view)
	if view.Title != "Team Fortress 2" || !view.Playing {
		t.Errorf("view = %+v", view)
	}
	if !resp.Metadata.Stale || resp.Metadata.PublishedAt == nil {
		t.Errorf("metadata = %+v, want stale with published_at", resp.Metadata)
	}
}

func TestFriends(t *testing.T) {
	t.Parallel()

	p := &fakePoller{friends: models.FriendsView{OnlineCount: 3, TotalCount: 10, DisplayText: "3 friends online", Available: true}}
	w := serve(t, newTestHandler(p, nil), http.MethodGet, "/api/v1/friends")

	var view models.FriendsView
	decodeBody(t, w, &view)
	if view.DisplayText != "3 friends online" || view.TotalCount != 10 {
		t.Errorf("view = %+v", view)
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	p := &fakePoller{}
	h := newTestHandler(p, nil)

	w := serve(t, h, http.MethodGet, "/api/v1/snapshot")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before publish = %d, want 503", w.Code)
	}
	if resp := decodeBody(t, w, nil); resp.Error == nil || resp.Error.Code != CodeNotReady {
		t.Errorf("error = %+v", resp.Error)
	}

	p.snap = publishedSnapshot()
	w = serve(t, h, http.MethodGet, "/api/v1/snapshot")
	var snap models.Snapshot
	resp := decodeBody(t, w, &snap)
	if w.Code != http.StatusOK || snap.Cycle != 4 {
		t.Errorf("status = %d, snapshot = %+v", w.Code, snap)
	}
	if !resp.Metadata.Stale {
		t.Error("cached player should mark the snapshot stale")
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		accept bool
		want   models.RefreshResponse
	}{
		{"accepted", true, models.RefreshResponse{Accepted: true}},
		{"coalesced", false, models.RefreshResponse{Coalesced: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &fakePoller{accept: tt.accept}
			w := serve(t, newTestHandler(p, nil), http.MethodPost, "/api/v1/refresh")
			if w.Code != http.StatusAccepted {
				t.Errorf("status = %d, want 202", w.Code)
			}
			var got models.RefreshResponse
			decodeBody(t, w, &got)
			if got != tt.want {
				t.Errorf("body = %+v, want %+v", got, tt.want)
			}
			if p.refreshes != 1 {
				t.Errorf("refreshes = %d, want 1", p.refreshes)
			}
		})
	}
}

func TestRefresh_GetNotAllowed(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestHandler(&fakePoller{}, nil), http.MethodGet, "/api/v1/refresh")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestArtwork(t *testing.T) {
	t.Parallel()

	store := cache.NewMemoryArtworkStore()
	_ = store.Put(cache.ArtworkEntry{GameID: "440", URL: "https://cdn.example/440.jpg", ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}, CachedAt: time.Now()})
	_ = store.Put(cache.ArtworkEntry{GameID: "570", URL: "https://cdn.example/570.jpg", CachedAt: time.Now()})
	h := newTestHandler(&fakePoller{}, cache.NewArtwork(store, nil))

	t.Run("bytes", func(t *testing.T) {
		w := serve(t, h, http.MethodGet, "/api/v1/artwork/440")
		if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/jpeg" || w.Body.Len() != 3 {
			t.Fatalf("status = %d, type = %q, len = %d", w.Code, w.Header().Get("Content-Type"), w.Body.Len())
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/artwork/440", nil)
		req.Header.Set("If-None-Match", w.Header().Get("ETag"))
		w2 := httptest.NewRecorder()
		NewRouter(h, nil).SetupChi().ServeHTTP(w2, req)
		if w2.Code != http.StatusNotModified {
			t.Errorf("conditional status = %d, want 304", w2.Code)
		}
	})

	t.Run("url only redirects", func(t *testing.T) {
		w := serve(t, h, http.MethodGet, "/api/v1/artwork/570")
		if w.Code != http.StatusFound || w.Header().Get("Location") != "https://cdn.example/570.jpg" {
			t.Errorf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("not cached", func(t *testing.T) {
		if w := serve(t, h, http.MethodGet, "/api/v1/artwork/730"); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		w := serve(t, h, http.MethodGet, "/api/v1/artwork/abc")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if resp := decodeBody(t, w, nil); resp.Error == nil || resp.Error.Code != CodeValidation {
			t.Errorf("error = %+v", resp.Error)
		}
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	degraded := publishedSnapshot()
	degraded.Degraded = true

	tests := []struct {
		name    string
		snap    *models.Snapshot
		breaker fakeBreaker
		want    string
	}{
		{"starting", nil, "closed", HealthStarting},
		{"healthy", publishedSnapshot(), "closed", HealthHealthy},
		{"degraded snapshot", degraded, "closed", HealthDegraded},
		{"breaker open", publishedSnapshot(), "open", HealthDegraded},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHandler(HandlerConfig{
				Poller:  &fakePoller{snap: tt.snap},
				Artwork: cache.NewArtwork(nil, nil),
				Breaker: tt.breaker,
			})
			w := serve(t, h, http.MethodGet, "/api/v1/health")
			if w.Code != http.StatusOK {
				t.Errorf("status = %d", w.Code)
			}
			var health models.HealthStatus
			decodeBody(t, w, &health)
			if health.Status != tt.want {
				t.Errorf("health status = %q, want %q", health.Status, tt.want)
			}
			if health.CircuitBreaker != string(tt.breaker) || health.PollerState != "IDLE" || health.Version != "dev" {
				t.Errorf("health = %+v", health)
			}
		})
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	p := &fakePoller{}
	h := newTestHandler(p, nil)

	if w := serve(t, h, http.MethodGet, "/api/v1/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before publish = %d, want 503", w.Code)
	}
	if w := serve(t, h, http.MethodGet, "/api/v1/health/live"); w.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", w.Code)
	}

	p.snap = publishedSnapshot()
	if w := serve(t, h, http.MethodGet, "/api/v1/health/ready"); w.Code != http.StatusOK {
		t.Errorf("status after publish = %d, want 200", w.Code)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	w := serve(t, newTestHandler(&fakePoller{}, nil), http.MethodGet, "/api/v1/nope")
	if w.Code != http.StatusNotFound || w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("status = %d, type = %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestWebSocket_Disabled(t *testing.T) {
	t.Parallel()

	if w := serve(t, newTestHandler(&fakePoller{}, nil), http.MethodGet, "/api/v1/ws"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWebSocket_PushesEntityState(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	hub.Publish(publishedSnapshot(),
		models.NowPlayingView{Title: "Team Fortress 2", GameID: "440", Playing: true, State: models.PlayStatePlaying},
		models.FriendsView{OnlineCount: 3, TotalCount: 10, DisplayText: "3 friends online", Available: true})

	h := NewHandler(HandlerConfig{Poller: &fakePoller{}, Artwork: cache.NewArtwork(nil, nil), Hub: hub})
	server := httptest.NewServer(NewRouter(h, nil).SetupChi())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string `json:"type"`
		Data struct {
			EntityID string `json:"entity_id"`
		} `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != ws.MessageTypeEntityChange || msg.Data.EntityID != "steam_currently_playing" {
		t.Errorf("first message = %+v", msg)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	h := NewHandler(HandlerConfig{CORSOrigins: []string{"https://dash.example"}})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://dash.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		tt := tt
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkWebSocketOrigin(req); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
