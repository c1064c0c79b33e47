// Package cache provides the persisted key-value store used to memoize
// normalized records between fetches. Entries are keyed by (kind, composite
// key) and stored as JSON.
package cache

import "context"

// Cache stores JSON-encoded records under a composite (kind, key) pair.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get decodes the entry into dest and reports whether it was present.
	Get(ctx context.Context, kind int, key string, dest any) (bool, error)

	// Put stores value under (kind, key), replacing any previous entry.
	Put(ctx context.Context, kind int, key string, value any) error

	// Close releases the underlying store.
	Close() error
}
