package cache

import (
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryService implements CacheService with an in-process map. It is
// the default backend when no memcache address is configured.
type MemoryService struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

// NewMemoryService creates a new in-process cache service
func NewMemoryService() *MemoryService {
	return &MemoryService{
		items: make(map[string]memoryItem),
	}
}

// Get retrieves a value from the cache
func (m *MemoryService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value with an expiration time. A zero expiration keeps
// the value for the process lifetime.
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}
	m.items[key] = memoryItem{value: value, expiresAt: expiresAt}
	return nil
}

// Delete removes a value from the cache
func (m *MemoryService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
