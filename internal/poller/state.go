// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package poller

// State is the poll cycle state. A cycle always walks
// IDLE -> FETCHING -> MERGING -> PUBLISHED -> IDLE.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateMerging
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFetching:
		return "FETCHING"
	case StateMerging:
		return "MERGING"
	case StatePublished:
		return "PUBLISHED"
	default:
		return "UNKNOWN"
	}
}

// Cycle triggers, used as the trigger metric label.
const (
	TriggerStartup = "startup"
	TriggerTimer   = "timer"
	TriggerManual  = "manual"
)
