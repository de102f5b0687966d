// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package steam

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredentials is wrapped in a KindAuth error when the API key or Steam ID is empty.
var ErrNoCredentials = errors.New("steam api key or steam id not configured")

// Kind classifies a failed upstream call so callers can branch on it.
type Kind int

const (
	// KindTransient covers 5xx, network errors, timeouts, malformed bodies,
	// unexpected statuses and an open circuit breaker. Retry next cycle.
	KindTransient Kind = iota + 1

	// KindAuth means the API key was rejected or is missing.
	KindAuth

	// KindPrivacy means the profile or friends list is not visible to the key.
	KindPrivacy
)

// String returns the metric/log label for k.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindPrivacy:
		return "privacy"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by Client operations.
type Error struct {
	Kind   Kind
	Op     string // Web API method, e.g. GetPlayerSummaries
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("steam %s: %s failure", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err. Errors that did not come from this package
// are reported as KindTransient so they are never mistaken for a steady state.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}

// IsTransient reports whether err is a transient upstream failure.
func IsTransient(err error) bool { return err != nil && KindOf(err) == KindTransient }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsPrivacy reports whether err means the requested data is private.
func IsPrivacy(err error) bool { return KindOf(err) == KindPrivacy }

// classifyStatus maps a non-200 HTTP status to a Kind. 401 is always an
// auth failure; forbidden is the Kind the endpoint uses for 403.
func classifyStatus(status int, forbidden Kind) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return forbidden
	default:
		return KindTransient
	}
}
