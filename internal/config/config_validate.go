// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package config

import (
	"fmt"

	"github.com/tomtom215/steamwatch/internal/validation"
)

// Validate checks struct tags first and then the cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	validators := []func() error{
		c.validatePollerInterval,
		c.validateCycleTimeout,
		c.validateServerRateLimit,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validatePollerInterval requires room for at least the two per-cycle
// upstream calls inside one interval.
func (c *Config) validatePollerInterval() error {
	if c.Poller.Interval < 2*c.RateLimit.Interval {
		return fmt.Errorf("POLL_INTERVAL (%s) must be at least twice RATE_LIMIT_INTERVAL (%s)",
			c.Poller.Interval, c.RateLimit.Interval)
	}
	return nil
}

func (c *Config) validateCycleTimeout() error {
	if c.Poller.CycleTimeout < c.Steam.Timeout {
		return fmt.Errorf("POLL_CYCLE_TIMEOUT (%s) must not be shorter than STEAM_HTTP_TIMEOUT (%s)",
			c.Poller.CycleTimeout, c.Steam.Timeout)
	}
	return nil
}

func (c *Config) validateServerRateLimit() error {
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_WINDOW is required when API_RATE_LIMIT is set")
	}
	return nil
}
