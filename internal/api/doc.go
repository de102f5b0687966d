// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

/*
Package api provides the HTTP REST API layer for Steamwatch.

The API exposes the poller's published state to the entity layer and to
dashboards. Handlers only read atomically published views; none of them
talks to the Steam Web API.

Key Components:

  - Router: chi route table and middleware stack
  - Handler: request handlers backed by the poller and artwork cache
  - ChiMiddleware: CORS (go-chi/cors) and per-IP rate limiting (go-chi/httprate)
  - Response formatting: the models.APIResponse envelope

Endpoints (/api/v1):

  - GET  /now-playing        current NowPlayingView
  - GET  /friends            current FriendsView
  - GET  /snapshot           last published snapshot (503 before the first cycle)
  - POST /refresh            manual poll trigger, 202 with accepted/coalesced
  - GET  /artwork/{gameID}   cached cover art bytes, or a redirect to the CDN
  - GET  /ws                 WebSocket push of entity changes
  - GET  /health             poller, breaker and hub state
  - GET  /health/live        liveness probe
  - GET  /health/ready       readiness probe, ready after the first publish

Prometheus metrics are served at /metrics.

Response Format:

	{
	  "status": "success",
	  "data": {"title": "Team Fortress 2", "playing": true, "stale": false},
	  "metadata": {"timestamp": "...", "published_at": "...", "stale": false}
	}

Stale data is reported in metadata rather than as an error: during an
upstream outage the last known state keeps being served with stale=true.
*/
package api
