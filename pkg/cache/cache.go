// Package cache stores derived artifacts that are expensive to recompute.
//
// The main consumer is connectivity centrality: betweenness and Katz
// centrality are a pure function of the connectivity matrix, so the result
// is keyed by the matrix content hash and reused across domain loads.
//
// Three backends implement [Cache]:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entries on disk for CLI use
//   - [RedisCache]: shared cache for server deployments
package cache

import (
	"context"
	"time"
)

// TTLs for cached artifacts.
const (
	// TTLCentrality is how long centrality vectors stay cached. Centrality
	// depends only on the matrix content, so entries never go stale; the TTL
	// only bounds disk and memory use.
	TTLCentrality = 30 * 24 * time.Hour

	// TTLRun is how long serialized rank runs stay cached by the API.
	TTLRun = 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiration.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
