// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

// Package api provides HTTP handlers for Steamwatch.
//
// errors.go - Common API error definitions
//
// This file contains sentinel errors and the error codes used in
// models.APIError bodies.
package api

import "errors"

// Error codes returned in models.APIError.Code.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeNotReady         = "NOT_READY"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// Common API errors
var (
	// ErrNotReady indicates no poll cycle has published a snapshot yet.
	ErrNotReady = errors.New("no snapshot published yet")

	// ErrWebSocketDisabled indicates the server runs without a push hub.
	ErrWebSocketDisabled = errors.New("websocket push is not enabled")
)
