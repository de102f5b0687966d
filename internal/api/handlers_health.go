// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/steamwatch/internal/models"
)

// Health status values.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthStarting = "starting"
)

// healthStatus builds the health body from the poller's last snapshot.
//
// The service is "starting" until the first publish and "degraded" while
// the last snapshot is degraded or the upstream breaker is open. Stale data
// alone is not degraded: serving the last known state through an outage is
// the normal mode of operation.
func (h *Handler) healthStatus() models.HealthStatus {
	stats := h.poller.Stats()
	health := models.HealthStatus{
		Status:      HealthHealthy,
		Version:     h.version,
		Uptime:      h.uptime(),
		PollerState: stats.State,
	}

	if h.breaker != nil {
		health.CircuitBreaker = h.breaker.BreakerState()
	}
	if h.wsHub != nil {
		health.WSClients = h.wsHub.GetClientCount()
	}

	snap := h.poller.Snapshot()
	switch {
	case snap == nil:
		health.Status = HealthStarting
	default:
		published := snap.PublishedAt
		health.LastPublishedAt = &published
		health.Degraded = snap.Degraded
		if snap.Degraded || health.CircuitBreaker == "open" {
			health.Status = HealthDegraded
		}
	}
	return health
}

// Health reports the poller, breaker and push hub state. It always answers
// 200 so dashboards can read the body during an outage.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, h.healthStatus(), models.Metadata{})
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of the upstream.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": h.uptime(),
	}, models.Metadata{})
}

// HealthReady handles readiness probe requests.
// Returns 200 once a snapshot has been published and 503 before that.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	health := h.healthStatus()
	if health.Status == HealthStarting {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status: "error",
			Data:   map[string]any{"ready": false, "status": "not_ready"},
			Metadata: models.Metadata{
				Timestamp: time.Now(),
			},
			Error: &models.APIError{Code: CodeNotReady, Message: ErrNotReady.Error()},
		})
		return
	}

	respondSuccess(w, http.StatusOK, map[string]any{
		"ready":             true,
		"status":            "ready",
		"last_published_at": health.LastPublishedAt,
	}, models.Metadata{})
}
