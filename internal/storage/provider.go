// Package storage defines the key-value persistence capability behind the item store.
package storage

import "context"

// Provider is a key-value persistence backend. Values are opaque blobs.
type Provider interface {
	// Get returns the value stored under key, or an error wrapping
	// apperr.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Name identifies the backend in logs ("file", "sqlite", "redis").
	Name() string
	// Close releases backend resources.
	Close() error
}
