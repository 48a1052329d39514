package cache

import (
	"context"
	"sync"
	"time"

	"velure/internal/domain/entity"
)

type memoryEntry struct {
	user      cachedUser
	expiresAt time.Time
}

// MemoryTokenCache keeps validations in process. Expired entries are dropped
// on read and by Purge.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryTokenCache) Get(_ context.Context, token string) (*entity.User, bool, error) {
	key := tokenKey("", token)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		return nil, false, nil
	}

	return entry.user.toUser(), true, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, token string, user *entity.User, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	c.entries[tokenKey("", token)] = memoryEntry{user: fromUser(user), expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return nil
}

func (c *MemoryTokenCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	delete(c.entries, tokenKey("", token))
	c.mu.Unlock()

	return nil
}

// Purge removes every expired entry and returns how many were removed.
func (c *MemoryTokenCache) Purge() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *MemoryTokenCache) Close() error {
	return nil
}
