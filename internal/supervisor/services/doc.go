// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package services provides suture.Service wrappers for Steamwatch components
whose lifecycle does not already match suture's Serve(ctx) pattern.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server and translates ListenAndServe into Serve
  - Drains connections on cancellation within a shutdown timeout

WebSocket Hub (WebSocketHubService):
  - Runs the entity push hub's loop under supervision
  - Closes every client when the context is canceled

The poller and the config file watcher implement Serve themselves and are
added to the tree directly.

# Usage

	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.Addr(), 10*time.Second))
	tree.AddPushService(services.NewWebSocketHubService(hub))
*/
package services
