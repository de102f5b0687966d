// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package config

import (
	"errors"
	"sync"
	"testing"
)

func TestCredentials_Update(t *testing.T) {
	t.Parallel()

	creds := NewCredentials(SteamConfig{APIKey: "old", SteamID: testSteamID})

	if err := creds.Update("  new-key ", testSteamID); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	key, id := creds.Credentials()
	if key != "new-key" || id != testSteamID {
		t.Errorf("Credentials() = (%q, %q)", key, id)
	}

	if err := creds.Update("", testSteamID); err == nil {
		t.Error("expected error for empty key")
	}
	if err := creds.Update("k", "bogus"); err == nil {
		t.Error("expected error for invalid steam id")
	}

	// Rejected updates leave the previous values in place.
	if key, _ := creds.Credentials(); key != "new-key" {
		t.Errorf("key = %q after rejected update, want new-key", key)
	}
}

func TestCredentials_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	creds := NewCredentials(SteamConfig{APIKey: "k0", SteamID: testSteamID})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = creds.Update("k1", testSteamID)
		}()
		go func() {
			defer wg.Done()
			if key, _ := creds.Credentials(); key == "" {
				t.Error("observed empty key")
			}
		}()
	}
	wg.Wait()
}

func TestWatcher_Reload(t *testing.T) {
	t.Parallel()

	creds := NewCredentials(SteamConfig{APIKey: "old", SteamID: testSteamID})
	w := NewWatcher("config.yaml", creds)

	w.load = func(string) (*Config, error) {
		cfg := defaultConfig()
		cfg.Steam.APIKey = "rotated"
		cfg.Steam.SteamID = testSteamID
		return cfg, nil
	}
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if key, _ := creds.Credentials(); key != "rotated" {
		t.Errorf("key = %q, want rotated", key)
	}

	w.load = func(string) (*Config, error) {
		return nil, errors.New("yaml: line 3: mapping values are not allowed")
	}
	if err := w.Reload(); err == nil {
		t.Error("expected reload error")
	}
	if key, _ := creds.Credentials(); key != "rotated" {
		t.Errorf("key = %q after failed reload, want rotated", key)
	}
	if w.String() != "config-watcher" {
		t.Errorf("String() = %q", w.String())
	}
}
