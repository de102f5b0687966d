// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"title": "Team Fortress 2", "playing": true, ...},
//	  "metadata": {
//	    "timestamp": "2026-03-01T12:00:00Z",
//	    "stale": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "NOT_FOUND",
//	    "message": "No artwork cached for game 440"
//	  },
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata.
//
// Fields:
//   - Timestamp: Server time when response was generated
//   - PublishedAt: When the served snapshot was published (zero before the first poll)
//   - Stale: Whether any part of the served data comes from an earlier poll cycle
type Metadata struct {
	Timestamp   time.Time  `json:"timestamp"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Stale       bool       `json:"stale,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Resource doesn't exist
//   - NOT_READY: No snapshot published yet
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - INTERNAL_ERROR: Unexpected server failure
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// RefreshResponse is returned by POST /api/v1/refresh.
type RefreshResponse struct {
	Accepted  bool `json:"accepted"`  // a new cycle was scheduled
	Coalesced bool `json:"coalesced"` // absorbed by an in-flight or pending cycle
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status          string     `json:"status"` // "healthy", "degraded", "starting"
	Version         string     `json:"version"`
	Uptime          float64    `json:"uptime_seconds"`
	PollerState     string     `json:"poller_state"`
	CircuitBreaker  string     `json:"circuit_breaker"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`
	Degraded        bool       `json:"degraded"`
	WSClients       int        `json:"websocket_clients"`
}
