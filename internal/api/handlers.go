// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/steamwatch/internal/cache"
	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/models"
	"github.com/tomtom215/steamwatch/internal/poller"
	ws "github.com/tomtom215/steamwatch/internal/websocket"
)

// PollerView is the part of the poller the handlers read from.
type PollerView interface {
	poller.Service
	Snapshot() *models.Snapshot
	Stats() poller.Stats
}

// ArtworkLookup reads cached artwork without fetching.
type ArtworkLookup interface {
	Lookup(gameID string) (cache.ArtworkEntry, bool)
}

// BreakerStater reports the upstream circuit breaker state.
type BreakerStater interface {
	BreakerState() string
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Poller  PollerView
	Artwork ArtworkLookup

	// Optional
	Breaker     BreakerStater
	Hub         *ws.Hub // nil disables /ws
	CORSOrigins []string
	Version     string
}

// Handler serves the HTTP API.
//
// Every handler reads atomically published state from the poller and never
// calls the Steam Web API itself, so a slow upstream cannot stall a request.
type Handler struct {
	poller      PollerView
	artwork     ArtworkLookup
	breaker     BreakerStater
	wsHub       *ws.Hub
	corsOrigins []string
	version     string
	startTime   time.Time
}

// NewHandler creates a Handler.
//
// Example:
//
//	handler := api.NewHandler(api.HandlerConfig{Poller: p, Artwork: p.Artwork(), Hub: hub})
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg.Server))
//	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())
func NewHandler(cfg HandlerConfig) *Handler {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		poller:      cfg.Poller,
		artwork:     cfg.Artwork,
		breaker:     cfg.Breaker,
		wsHub:       cfg.Hub,
		corsOrigins: cfg.CORSOrigins,
		version:     version,
		startTime:   time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
//
// Remote-control devices are not browsers and send no Origin header, so a
// missing Origin is accepted. A present Origin must be in the CORS list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowedOrigin := range h.corsOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
