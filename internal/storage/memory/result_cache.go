package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"token-safety-oracle/internal/domain"
	"token-safety-oracle/internal/storage"
)

const shardCount = 16 // power of two

// ResultCache is an in-memory implementation of storage.ResultCache.
// Keys are spread over shards by xxhash so concurrent requests for
// different tokens rarely contend on the same lock.
type ResultCache struct {
	shards [shardCount]resultShard
	ttl    time.Duration
	now    func() time.Time
}

type resultShard struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	chain   string
	address string
}

type cacheEntry struct {
	result   domain.SafetyResult
	storedAt time.Time
}

// ResultCacheOption configures ResultCache.
type ResultCacheOption func(*ResultCache)

// WithClock sets the time source used for entry ages.
func WithClock(now func() time.Time) ResultCacheOption {
	return func(c *ResultCache) {
		c.now = now
	}
}

// NewResultCache creates a new in-memory result cache with storage.ResultTTL.
func NewResultCache(opts ...ResultCacheOption) *ResultCache {
	c := &ResultCache{
		ttl: storage.ResultTTL,
		now: time.Now,
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[cacheKey]cacheEntry)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) shard(k cacheKey) *resultShard {
	h := xxhash.Sum64String(k.chain + "\x00" + k.address)
	return &c.shards[h&(shardCount-1)]
}

// Lookup returns a copy of the cached result if it is younger than the TTL.
func (c *ResultCache) Lookup(_ context.Context, chain, address string) (domain.SafetyResult, bool) {
	k := cacheKey{chain: chain, address: address}
	sh := c.shard(k)
	now := c.now()

	sh.mu.RLock()
	e, exists := sh.entries[k]
	sh.mu.RUnlock()

	if !exists {
		return domain.SafetyResult{}, false
	}
	if now.Sub(e.storedAt) < c.ttl {
		return e.result.Clone(), true
	}

	sh.mu.Lock()
	// A concurrent Store may have refreshed the entry since we read it.
	if cur, ok := sh.entries[k]; ok && now.Sub(cur.storedAt) >= c.ttl {
		delete(sh.entries, k)
	}
	sh.mu.Unlock()

	return domain.SafetyResult{}, false
}

// Store saves a copy of result, replacing any existing entry for the key.
func (c *ResultCache) Store(_ context.Context, chain, address string, result domain.SafetyResult) error {
	if chain == "" || address == "" {
		return storage.ErrInvalidInput
	}

	k := cacheKey{chain: chain, address: address}
	sh := c.shard(k)
	e := cacheEntry{result: result.Clone(), storedAt: c.now()}

	sh.mu.Lock()
	sh.entries[k] = e
	sh.mu.Unlock()
	return nil
}

// Len returns the number of entries held, stale ones included.
func (c *ResultCache) Len() int {
	n := 0
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

var _ storage.ResultCache = (*ResultCache)(nil)
