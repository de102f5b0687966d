// Steamwatch - Steam Presence Bridge for Remote-Control Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/steamwatch

package cache

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	artworkKeyPrefix  = "artwork:"
	responseKeyPrefix = "response:"
)

// OpenBadger opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db %q: %w", dir, err)
	}
	return db, nil
}

// BadgerArtworkStore implements ArtworkStore on BadgerDB so artwork
// survives restarts.
type BadgerArtworkStore struct {
	db    *badger.DB
	count atomic.Int64
}

// NewBadgerArtworkStore creates a store over db and counts existing entries.
func NewBadgerArtworkStore(db *badger.DB) (*BadgerArtworkStore, error) {
	s := &BadgerArtworkStore{db: db}

	var n int64
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(artworkKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count artwork: %w", err)
	}
	s.count.Store(n)
	return s, nil
}

func (s *BadgerArtworkStore) Get(gameID string) (ArtworkEntry, error) {
	var e ArtworkEntry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(artworkKeyPrefix + gameID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoValue
		}
		if err != nil {
			return fmt.Errorf("get artwork: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return ArtworkEntry{}, err
	}
	return e, nil
}

func (s *BadgerArtworkStore) Put(e ArtworkEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal artwork: %w", err)
	}

	key := []byte(artworkKeyPrefix + e.GameID)
	var added bool
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			added = true
		case err != nil:
			return fmt.Errorf("get artwork: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("set artwork: %w", err)
	}
	if added {
		s.count.Add(1)
	}
	return nil
}

func (s *BadgerArtworkStore) Len() int {
	return int(s.count.Load())
}

// BadgerMirror implements Mirror on BadgerDB.
type BadgerMirror struct {
	db *badger.DB
}

// NewBadgerMirror creates a Mirror over db.
func NewBadgerMirror(db *badger.DB) *BadgerMirror {
	return &BadgerMirror{db: db}
}

func (m *BadgerMirror) Save(key string, data []byte) error {
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(responseKeyPrefix+key), data)
	})
}

func (m *BadgerMirror) Load(key string) ([]byte, error) {
	var data []byte

	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(responseKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoValue
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
