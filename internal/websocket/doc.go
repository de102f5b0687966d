// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package websocket pushes entity changes to remote-control devices.

Devices that cannot poll the REST API keep a WebSocket open instead. After
every poll cycle the Hub receives the published snapshot (it implements the
poller's Publisher interface) and broadcasts one entity_change message per
entity followed by the full snapshot.

Key Components:

  - Hub: owns the client set, the broadcast queue and the last entity state
  - Client: one connection with its own read and write goroutines
  - Message: the typed envelope every frame uses

Architecture:

	poller ──Publish──▶ Hub ──▶ Client1
	                       ├──▶ Client2
	                       └──▶ Client3

A client that registers between poll cycles immediately receives the last
published entity_change messages.

Message Types:

Server to client:

  - entity_change: {"entity_id": "...", "attributes": {...}}
  - snapshot: the full poll snapshot
  - refresh_result: {"accepted": bool, "coalesced": bool}
  - pong: reply to a client ping

Client to server:

  - ping
  - refresh: request a manual poll cycle

Usage Example:

	hub := websocket.NewHub(p.TriggerManualRefresh)
	p.AddPublisher(hub)
	go hub.RunWithContext(ctx)

	// in the upgrade handler
	client := websocket.NewClient(hub, conn)
	hub.Register <- client
	client.Start()

Thread Safety:

Publish and BroadcastJSON never block. A client whose send buffer is full is
dropped rather than slowing the other clients down.
*/
package websocket
