// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/steamwatch/internal/entity"
	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub starts a hub that stops when the test ends.
func setupHub(t *testing.T, refresh func() bool) *Hub {
	t.Helper()
	hub := NewHub(refresh)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 256)}
}

// receive waits for the next message on the client's send channel.
func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-client.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func playingViews() (models.NowPlayingView, models.FriendsView) {
	return models.NowPlayingView{Title: "Team Fortress 2", GameID: "440", Playing: true, State: models.PlayStatePlaying},
		models.FriendsView{OnlineCount: 3, TotalCount: 10, DisplayText: "3 friends online", Available: true}
}

func TestHub_RegisterUnregister(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	client := createTestClient(hub)

	hub.Register <- client
	waitForCount(t, hub, 1)

	hub.Unregister <- client
	waitForCount(t, hub, 0)

	if _, ok := <-client.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishBroadcastsEntityChanges(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	client := createTestClient(hub)
	hub.Register <- client
	waitForCount(t, hub, 1)

	np, fv := playingViews()
	snap := &models.Snapshot{Cycle: 7}
	hub.Publish(snap, np, fv)

	first := receive(t, client)
	if first.Type != MessageTypeEntityChange {
		t.Fatalf("first message type = %q", first.Type)
	}
	change, ok := first.Data.(entity.Change)
	if !ok || change.EntityID != entity.NowPlayingID || change.Attributes[entity.AttrArtist] != "Team Fortress 2" {
		t.Errorf("first change = %+v", first.Data)
	}

	second := receive(t, client)
	if change, ok := second.Data.(entity.Change); !ok || change.EntityID != entity.FriendsID {
		t.Errorf("second change = %+v", second.Data)
	}

	third := receive(t, client)
	if third.Type != MessageTypeSnapshot || third.Data.(*models.Snapshot).Cycle != 7 {
		t.Errorf("third message = %+v", third)
	}
}

func TestHub_NewClientGetsLastState(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	np, fv := playingViews()
	hub.Publish(&models.Snapshot{}, np, fv)

	if got := len(hub.LastChanges()); got != 2 {
		t.Fatalf("LastChanges() len = %d, want 2", got)
	}

	client := createTestClient(hub)
	hub.Register <- client

	msg := receive(t, client)
	if msg.Type != MessageTypeEntityChange {
		t.Errorf("replayed message type = %q", msg.Type)
	}
	if change := msg.Data.(entity.Change); change.EntityID != entity.NowPlayingID {
		t.Errorf("replayed entity = %q", change.EntityID)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	t.Parallel()

	hub := setupHub(t, nil)
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message)}
	hub.Register <- slow
	waitForCount(t, hub, 1)

	hub.BroadcastJSON(MessageTypeSnapshot, nil)
	waitForCount(t, hub, 0)
}

func TestHub_HandleRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		refresh func() bool
		want    RefreshResult
	}{
		{"no handler", nil, RefreshResult{}},
		{"accepted", func() bool { return true }, RefreshResult{Accepted: true}},
		{"coalesced", func() bool { return false }, RefreshResult{Coalesced: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hub := NewHub(tt.refresh)
			if got := hub.handleRefresh(); got != tt.want {
				t.Errorf("handleRefresh() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHub_RunWithContextClosesClients(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	client := createTestClient(hub)
	hub.Register <- client
	waitForCount(t, hub, 1)

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("client count = %d after shutdown", hub.GetClientCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled reason = %q", got)
	}

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline reason = %q", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	data, err := MarshalMessage(Message{Type: MessageTypeRefreshResult, Data: RefreshResult{Accepted: true}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"refresh_result","data":{"accepted":true,"coalesced":false}}`
	if string(data) != want {
		t.Errorf("MarshalMessage() = %s, want %s", data, want)
	}
}
