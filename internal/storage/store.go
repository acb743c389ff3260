// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
)

// Recognised keys of the key-value store.
const (
	KeyItems          = "items"
	KeyRecentSearches = "recent"
	KeyRecentItems    = "recentItems"
	KeyBill           = "calc"
	KeyHistory        = "bills"
	KeySettings       = "settings"
	KeyTheme          = "theme"
	KeyLock           = "lock"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: store closed")

// KV defines the key-value persistence interface.
// Values are opaque byte slices; callers store JSON documents.
// This abstraction allows swapping storage backends (SQLite, Redis, ...)
// without changing the calculator or service layer.
type KV interface {
	// Get returns the value stored under key.
	// The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}
