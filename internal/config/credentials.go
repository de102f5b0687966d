// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/providers/file"

	"github.com/tomtom215/steamwatch/internal/logging"
	"github.com/tomtom215/steamwatch/internal/validation"
)

// CredentialProvider exposes the Web API key and the watched account.
// The upstream client reads it on every request so a corrected key takes
// effect on the next poll cycle.
type CredentialProvider interface {
	Credentials() (apiKey, steamID string)
}

// Credentials is the hot-reloadable CredentialProvider backed by the config file.
type Credentials struct {
	mu      sync.RWMutex
	apiKey  string
	steamID string
}

// NewCredentials seeds the provider from cfg.
func NewCredentials(cfg SteamConfig) *Credentials {
	return &Credentials{
		apiKey:  cfg.APIKey,
		steamID: cfg.SteamID,
	}
}

// Credentials returns the current key and Steam ID.
func (c *Credentials) Credentials() (apiKey, steamID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.steamID
}

// Update swaps in new credentials. Only presence and Steam ID shape are
// checked; whether the key is accepted is for the Web API to decide.
func (c *Credentials) Update(apiKey, steamID string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("STEAM_API_KEY is required")
	}
	normalized, err := validation.NormalizeSteamID(steamID)
	if err != nil {
		return fmt.Errorf("STEAM_ID: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = apiKey
	c.steamID = normalized
	return nil
}

// Watcher reloads Credentials whenever the config file changes. It
// implements suture.Service.
type Watcher struct {
	path  string
	creds *Credentials
	load  func(path string) (*Config, error)
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, creds *Credentials) *Watcher {
	return &Watcher{path: path, creds: creds, load: LoadFile}
}

// Reload re-reads the config file and applies the Steam credentials.
// A file that fails to load or validate leaves the current credentials in place.
func (w *Watcher) Reload() error {
	cfg, err := w.load(w.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", w.path, err)
	}
	return w.creds.Update(cfg.Steam.APIKey, cfg.Steam.SteamID)
}

// Serve watches the file until ctx is canceled.
func (w *Watcher) Serve(ctx context.Context) error {
	provider := file.Provider(w.path)
	err := provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			logging.Warn().Err(err).Str("path", w.path).Msg("Config watch error")
			return
		}
		if err := w.Reload(); err != nil {
			logging.Warn().Err(err).Msg("Config reload rejected, keeping current credentials")
			return
		}
		logging.Info().Str("path", w.path).Msg("Steam credentials reloaded")
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	<-ctx.Done()
	if err := provider.Unwatch(); err != nil {
		logging.Debug().Err(err).Msg("Config unwatch failed")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (w *Watcher) String() string {
	return "config-watcher"
}
