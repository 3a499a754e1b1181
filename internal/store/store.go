// Package store is the persistent key-value store the companion reads its
// options from and writes them back to.
package store

import "context"

// Store is the host's persistent key-value storage. Values are opaque strings.
type Store interface {
	// GetItem returns the value for key; ok is false when nothing was stored.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	// SetItem stores value under key, overwriting any previous value.
	SetItem(ctx context.Context, key, value string) error
}
