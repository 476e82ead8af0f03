// Package cache provides a small byte cache for AI responses. Anomaly and
// recommendation payloads change slowly and cost a provider call each, so
// the HTTP layer can reuse a recent result instead of re-dispatching.
// Supports an in-memory backend and Redis for multi-instance deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultTTL is the default time-to-live for cached AI responses.
const DefaultTTL = 5 * time.Minute

// Cache defines the interface for response cache storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a cached value. The bool reports whether a live entry
	// was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key for ttl (DefaultTTL when ttl <= 0).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key derives a stable cache key from the operation name and whatever
// inputs affect the response. Hashing keeps keys short and avoids leaking
// settings material into Redis.
func Key(operation string, parts ...string) string {
	h := xxhash.New()
	h.WriteString(operation)
	for _, p := range parts {
		h.WriteString("\x00")
		h.WriteString(p)
	}
	return fmt.Sprintf("%s:%016x", operation, h.Sum64())
}
