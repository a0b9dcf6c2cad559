// Package clientstate manages small per-visitor state records, such as
// the "campaign popup already shown" flag, with a pluggable persistence
// backend and TTL-based expiry checked on load.
package clientstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = errors.New("clientstate: record not found")

// Backend persists raw state records keyed by visitor and name.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Record wraps a stored value with its write time so expiry can be
// enforced on load even when the backend has no native TTL.
type Record struct {
	Value     json.RawMessage `json:"value"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Store reads and writes visitor state records through a Backend.
type Store struct {
	backend Backend
	now     func() time.Time
}

// NewStore creates a store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Save stores value under key with the given TTL.
func (s *Store) Save(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal clientstate value: %w", err)
	}

	now := s.now().UTC()
	rec := Record{
		Value:     raw,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal clientstate record: %w", err)
	}

	if err := s.backend.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("store clientstate record: %w", err)
	}

	return nil
}

// Load reads the record under key into target. Expiry is checked here,
// not only at the backend: a record past its ExpiresAt is deleted and
// reported as ErrNotFound.
func (s *Store) Load(ctx context.Context, key string, target any) error {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("unmarshal clientstate record: %w", err)
	}

	if s.now().UTC().After(rec.ExpiresAt) {
		_ = s.backend.Delete(ctx, key)
		return ErrNotFound
	}

	if err := json.Unmarshal(rec.Value, target); err != nil {
		return fmt.Errorf("unmarshal clientstate value: %w", err)
	}

	return nil
}

// Delete removes the record under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
