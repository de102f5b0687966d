// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/steamwatch/internal/models"
)

// serveHub upgrades every request and registers the connection with hub.
func serveHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		hub.Register <- client
		client.Start()
	}))
	t.Cleanup(server.Close)
	return server
}

func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readType reads frames until one of type want arrives.
func readType(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	for {
		var msg struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading %s: %v", want, err)
		}
		if msg.Type == want {
			return msg.Data
		}
	}
}

func TestNewClient_UniqueIDs(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	a, b := NewClient(hub, nil), NewClient(hub, nil)
	if a.ID() == b.ID() || b.ID() < a.ID() {
		t.Errorf("ids not increasing: %d, %d", a.ID(), b.ID())
	}
	if cap(a.send) != 256 {
		t.Errorf("send buffer = %d, want 256", cap(a.send))
	}
}

func TestClient_PingPong(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	conn := dialWebSocket(t, serveHub(t, hub))

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	data := readType(t, conn, MessageTypePong)
	if data["timestamp"] == "" {
		t.Errorf("pong data = %v", data)
	}
}

func TestClient_RefreshRequest(t *testing.T) {
	t.Parallel()

	calls := make(chan struct{}, 1)
	hub := setupHub(t, func() bool {
		calls <- struct{}{}
		return true
	})
	conn := dialWebSocket(t, serveHub(t, hub))

	if err := conn.WriteJSON(Message{Type: MessageTypeRefresh}); err != nil {
		t.Fatal(err)
	}
	data := readType(t, conn, MessageTypeRefreshResult)
	if data["accepted"] != true || data["coalesced"] != false {
		t.Errorf("refresh_result = %v", data)
	}
	select {
	case <-calls:
	default:
		t.Error("refresh handler not called")
	}
}

func TestClient_ReplyAfterSendClosed(t *testing.T) {
	t.Parallel()

	client := NewClient(NewHub(nil), nil)
	close(client.send)

	client.handle(Message{Type: MessageTypePing})
	select {
	case reply := <-client.replies:
		if reply.Type != MessageTypePong {
			t.Errorf("reply type = %q, want pong", reply.Type)
		}
	default:
		t.Error("no reply queued")
	}
}

func TestClient_ReceivesEntityChange(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	conn := dialWebSocket(t, serveHub(t, hub))
	waitForCount(t, hub, 1)

	np, fv := playingViews()
	hub.Publish(&models.Snapshot{}, np, fv)

	data := readType(t, conn, MessageTypeEntityChange)
	if data["entity_id"] != "steam_currently_playing" {
		t.Errorf("entity_change = %v", data)
	}
	attrs, _ := data["attributes"].(map[string]any)
	if attrs["state"] != "PLAYING" || attrs["media_artist"] != "Team Fortress 2" {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	conn := dialWebSocket(t, serveHub(t, hub))
	waitForCount(t, hub, 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitForCount(t, hub, 0)
}

func TestConstants(t *testing.T) {
	t.Parallel()

	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be shorter than pongWait %v", pingPeriod, pongWait)
	}
	if writeWait != 10*time.Second {
		t.Errorf("writeWait = %v", writeWait)
	}
}
