// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package main is the entry point for the Steamwatch server.

Steamwatch polls the Steam Web API for one account's presence, current game
and online friends, and exposes the result as two media-player entities
(steam_currently_playing and steam_friends) to remote-control devices over
REST and WebSocket.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("steamwatch")
	├── PollSupervisor ("poll-layer")
	│   ├── Poller (30s cycles, manual refresh)
	│   └── Config watcher (credential reload, when a config file exists)
	├── PushSupervisor ("push-layer")
	│   └── WebSocket Hub
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Cache stores: optional Badger databases for artwork and last responses
 4. Steam client: 1 request/s FIFO limiter and circuit breaker
 5. Poller: response caches, artwork cache, projector
 6. WebSocket Hub: registered as a poller publisher
 7. HTTP Server: Chi router with middleware stack
 8. Supervisor Tree: Suture v4 process supervision

# Configuration

Priority: Environment variables > Config file > Defaults

	STEAM_API_KEY=<key>           # required
	STEAM_ID=7656119...           # required, 64-bit SteamID
	POLL_INTERVAL=30s
	RATE_LIMIT_INTERVAL=1s
	ARTWORK_VARIANT=library       # library or header
	ARTWORK_FETCH_BYTES=false
	ARTWORK_CACHE_DIR=            # empty keeps artwork in memory
	RESPONSE_CACHE_DIR=           # empty disables the restart mirror
	HTTP_PORT=8737
	LOG_LEVEL=info
	LOG_FORMAT=json

The config file is found through CONFIG_PATH or the default search paths.
When present, edits to its steam section are picked up without a restart.

# Graceful Shutdown

SIGINT and SIGTERM cancel the root context. The poller finishes or abandons
its cycle, the hub closes every client, and the HTTP server drains within
10 seconds. Services that fail to stop in time are logged by name.
*/
package main
