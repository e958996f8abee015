package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// AccountCache stores resolved ledger accounts keyed by company and lookup
// kind (a tax role or a settlement purpose such as "bank").
type AccountCache interface {
	Get(ctx context.Context, company, kind string) (string, bool)
	Set(ctx context.Context, company, kind, account string)
	Invalidate(ctx context.Context, company, kind string)
	InvalidateCompany(ctx context.Context, company string)
}

func cacheKey(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(part)))
	}
	return strings.Join(normalized, "|")
}

type memoryEntry struct {
	account   string
	expiresAt time.Time
}

// MemoryAccountCache is a process-local TTL cache.
type MemoryAccountCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryAccountCache creates a cache whose entries live for ttl. A nil
// clock uses time.Now.
func NewMemoryAccountCache(ttl time.Duration, now func() time.Time) *MemoryAccountCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryAccountCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryAccountCache) Get(_ context.Context, company, kind string) (string, bool) {
	key := cacheKey(company, kind)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return entry.account, true
}

func (c *MemoryAccountCache) Set(_ context.Context, company, kind, account string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(company, kind)] = memoryEntry{
		account:   account,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *MemoryAccountCache) Invalidate(_ context.Context, company, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(company, kind))
}

func (c *MemoryAccountCache) InvalidateCompany(_ context.Context, company string) {
	prefix := cacheKey(company) + "|"

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryAccountCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
