package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/grocerease/internal/models"
	"go.uber.org/multierr"
)

// DefaultKey is the fixed name the snapshot is stored under.
const DefaultKey = "grocerease-storage"

// snapshotVersion is bumped when the envelope layout changes.
const snapshotVersion = 0

// ErrInvalidSnapshot marks a persisted snapshot that cannot be restored.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the persisted projection of the store: session and cart.
// Products, categories and orders are never part of it.
type Snapshot struct {
	IsLoggedIn bool              `json:"isLoggedIn"`
	User       *models.User      `json:"user"`
	CartItems  []models.CartItem `json:"cartItems"`
}

// envelope is the on-disk layout: {"state": {...}, "version": 0}.
type envelope struct {
	State   *Snapshot `json:"state"`
	Version int       `json:"version"`
}

// Validate reports every inconsistency of s, wrapped in ErrInvalidSnapshot.
func (s Snapshot) Validate() error {
	var err error
	if s.IsLoggedIn && s.User == nil {
		err = multierr.Append(err, errors.New("logged in without user"))
	}
	if !s.IsLoggedIn && s.User != nil {
		err = multierr.Append(err, errors.New("user present while logged out"))
	}
	seen := make(map[models.ID]bool, len(s.CartItems))
	for i, it := range s.CartItems {
		if it.ID == "" {
			err = multierr.Append(err, fmt.Errorf("cart item %d: missing id", i))
			continue
		}
		if it.Quantity < 1 {
			err = multierr.Append(err, fmt.Errorf("cart item %s: quantity %d", it.ID, it.Quantity))
		}
		if seen[it.ID] {
			err = multierr.Append(err, fmt.Errorf("cart item %s: duplicate", it.ID))
		}
		seen[it.ID] = true
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return nil
}

// Encode serializes s inside the versioned envelope.
func Encode(s Snapshot) ([]byte, error) {
	if s.CartItems == nil {
		s.CartItems = []models.CartItem{}
	}
	b, err := json.Marshal(envelope{State: &s, Version: snapshotVersion})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses and validates an encoded snapshot.
func Decode(data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if env.State == nil {
		return Snapshot{}, fmt.Errorf("%w: missing state", ErrInvalidSnapshot)
	}
	if env.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, env.Version)
	}
	if err := env.State.Validate(); err != nil {
		return Snapshot{}, err
	}
	if env.State.CartItems == nil {
		env.State.CartItems = []models.CartItem{}
	}
	return *env.State, nil
}
