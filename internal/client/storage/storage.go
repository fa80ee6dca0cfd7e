// Package storage persists the session snapshot of the storefront store
// across restarts. Backends share one codec: a versioned JSON envelope
// that may additionally be sealed with an AEAD cipher.
package storage

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps the snapshot in <dir>/<key>.json.
type FileStorage struct {
	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

// FileOption configures a FileStorage.
type FileOption func(*FileStorage)

// WithAEAD seals the file contents with aead.
func WithAEAD(aead cipher.AEAD) FileOption {
	return func(fs *FileStorage) { fs.aead = aead }
}

// NewFileStorage returns a FileStorage for key inside dir.
func NewFileStorage(dir, key string, opts ...FileOption) *FileStorage {
	if key == "" {
		key = DefaultKey
	}
	fs := &FileStorage{path: filepath.Join(dir, key+".json")}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Path returns the snapshot file location.
func (fs *FileStorage) Path() string {
	return fs.path
}

// Load reads the snapshot. ok is false when no file exists yet. A file that
// cannot be opened or parsed yields an error wrapping ErrInvalidSnapshot.
func (fs *FileStorage) Load(_ context.Context) (Snapshot, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	if fs.aead != nil {
		data, err = open(fs.aead, data)
		if err != nil {
			return Snapshot{}, false, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}
	snap, err := Decode(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save replaces the snapshot atomically via a temp file and rename.
func (fs *FileStorage) Save(_ context.Context, s Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if fs.aead != nil {
		data, err = seal(fs.aead, data)
		if err != nil {
			return err
		}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(fs.path), filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
