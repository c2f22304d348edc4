package cache

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheService represents a generic cache service. It backs the
// scraper's per-host rate-limit blocks and the scheduler's once-per-day
// send markers.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
