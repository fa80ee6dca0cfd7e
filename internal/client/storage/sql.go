package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrSnapshotNotFound is returned by a SnapshotRepository for unknown keys.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores encoded snapshots by key.
type SnapshotRepository interface {
	// Get returns the document stored under key or ErrSnapshotNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put inserts or replaces the document stored under key.
	Put(ctx context.Context, key string, data []byte) error
}

// SQLStorage persists the snapshot through a SnapshotRepository.
type SQLStorage struct {
	repo SnapshotRepository
	key  string
}

// NewSQLStorage returns a SQLStorage writing under key.
func NewSQLStorage(repo SnapshotRepository, key string) *SQLStorage {
	if key == "" {
		key = DefaultKey
	}
	return &SQLStorage{repo: repo, key: key}
}

// Load reads and decodes the snapshot; ok is false for an unknown key.
func (s *SQLStorage) Load(ctx context.Context) (Snapshot, bool, error) {
	data, err := s.repo.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("load snapshot %q: %w", s.key, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save encodes s and stores it under the key.
func (s *SQLStorage) Save(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.repo.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save snapshot %q: %w", s.key, err)
	}
	return nil
}
