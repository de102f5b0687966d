// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package cache

import "sync"

// ArtworkStore holds artwork entries for the Artwork cache.
type ArtworkStore interface {
	// Get returns the entry of gameID, or ErrNoValue.
	Get(gameID string) (ArtworkEntry, error)
	// Put stores e under e.GameID.
	Put(e ArtworkEntry) error
	// Len returns the number of stored entries.
	Len() int
}

// MemoryArtworkStore is the default ArtworkStore. Contents are lost on
// restart.
type MemoryArtworkStore struct {
	mu      sync.RWMutex
	entries map[string]ArtworkEntry
}

// NewMemoryArtworkStore creates an empty MemoryArtworkStore.
func NewMemoryArtworkStore() *MemoryArtworkStore {
	return &MemoryArtworkStore{entries: make(map[string]ArtworkEntry)}
}

func (s *MemoryArtworkStore) Get(gameID string) (ArtworkEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[gameID]
	if !ok {
		return ArtworkEntry{}, ErrNoValue
	}
	return e, nil
}

func (s *MemoryArtworkStore) Put(e ArtworkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.GameID] = e
	return nil
}

func (s *MemoryArtworkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
