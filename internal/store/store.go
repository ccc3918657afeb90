package store

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned for keys that are empty or contain path
// separators.
var ErrInvalidKey = errors.New("store: invalid key")

// KV is a durable key/value side-store. Values are opaque bytes; callers
// encode them (the session store writes JSON).
type KV interface {
	// Get returns the value stored under key, or nil, nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
