package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps the encoded snapshot in memory. It goes through the
// same codec as the durable backends, so tests observe identical behavior.
type MemoryStorage struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load decodes the stored snapshot; ok is false when nothing was saved.
func (m *MemoryStorage) Load(_ context.Context) (Snapshot, bool, error) {
	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()
	if data == nil {
		return Snapshot{}, false, nil
	}
	snap, err := Decode(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save encodes and stores s.
func (m *MemoryStorage) Save(_ context.Context, s Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Raw returns a copy of the stored bytes.
func (m *MemoryStorage) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

// SetRaw stores data verbatim, e.g. to simulate a corrupted snapshot.
func (m *MemoryStorage) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}
