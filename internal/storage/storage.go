// Package storage persists session snapshots in BadgerDB.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/session"
)

const snapshotPrefix = "snapshot/"

func snapshotKey(id uuid.UUID) []byte {
	return []byte(snapshotPrefix + id.String())
}

// Store wraps BadgerDB for snapshot storage
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a store that keeps nothing on disk.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes a snapshot under its session id, replacing any earlier one.
func (s *Store) Save(snap session.Snapshot) error {
	if snap.ID == uuid.Nil {
		return fmt.Errorf("snapshot without id: %w", errors.ErrInvalidConfig)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(snap.ID), data)
	})
}

// Load reads the snapshot of a session.
func (s *Store) Load(id uuid.UUID) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("snapshot %s: %w", id, errors.ErrSnapshotNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	return snap, err
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (s *Store) Delete(id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(id))
	})
}

// List returns the ids of every stored snapshot, sorted.
func (s *Store) List() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(snapshotPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), snapshotPrefix)
			id, err := uuid.Parse(key)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, err
}
