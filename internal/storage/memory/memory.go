// Package memory provides an in-process implementation of the storage.KV
// interface. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/mmynk/weighbill/internal/storage"
)

// Ensure Store implements storage.KV
var _ storage.KV = (*Store)(nil)

// Store is a map-backed storage.KV.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, storage.ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
