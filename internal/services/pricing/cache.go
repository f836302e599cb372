// Package pricing implements the cache-first, rate-limited price service:
// a TTL-keyed quote cache, a durable call budget, and an ordered provider
// fetch chain with fallback.
package pricing

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
	"github.com/mwillis/coinfolio/internal/models"
)

// cachedEntry is the persisted form of one cache slot.
type cachedEntry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
	TTLMs    int64     `json:"ttl_ms"`
}

func (c cachedEntry[T]) expiresAt() time.Time {
	return c.StoredAt.Add(time.Duration(c.TTLMs) * time.Millisecond)
}

// staleRetention bounds how long an expired slot stays readable through
// GetStale before it is physically evicted. Keeps the cache from growing
// without losing the last-known price the moment its TTL lapses.
const staleRetention = 24 * time.Hour

// Cache is a TTL key→value store with one namespace per data kind (the
// simple-price and market-data namespaces share the mechanics, not the
// slots). Keys are normalized symbols. Expired slots are physically evicted
// on read. Entries are mirrored into the local KV store so the cache
// survives restarts.
type Cache[T any] struct {
	mu        sync.Mutex
	namespace string
	kv        interfaces.KeyValueStore // nil means memory-only
	entries   map[string]cachedEntry[T]
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewCache creates a cache for the given namespace, loading any persisted,
// still-usable entries from the KV store. kv may be nil for a memory-only cache.
func NewCache[T any](namespace string, kv interfaces.KeyValueStore, logger *common.Logger) *Cache[T] {
	c := &Cache[T]{
		namespace: namespace,
		kv:        kv,
		entries:   make(map[string]cachedEntry[T]),
		logger:    logger,
		now:       time.Now,
	}
	c.loadPersisted()
	return c
}

func (c *Cache[T]) kvKey(symbol string) string {
	return "pricecache:" + c.namespace + ":" + symbol
}

func (c *Cache[T]) loadPersisted() {
	if c.kv == nil {
		return
	}
	all, err := c.kv.GetAll(context.Background())
	if err != nil {
		c.logger.Warn().Err(err).Str("namespace", c.namespace).Msg("Price cache: failed to load persisted entries")
		return
	}
	prefix := "pricecache:" + c.namespace + ":"
	loaded := 0
	for key, value := range all {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		var entry cachedEntry[T]
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		if c.now().After(entry.StoredAt.Add(staleRetention)) {
			c.kv.Delete(context.Background(), key)
			continue
		}
		c.entries[strings.TrimPrefix(key, prefix)] = entry
		loaded++
	}
	if loaded > 0 {
		c.logger.Debug().Int("entries", loaded).Str("namespace", c.namespace).Msg("Price cache: loaded persisted entries")
	}
}

// Get returns the cached value for the symbol, or false when absent or
// expired. Entries past the stale retention horizon are evicted so the cache
// never grows unbounded.
func (c *Cache[T]) Get(symbol string) (T, bool) {
	var zero T
	key := models.NormalizeSymbol(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if now := c.now(); now.After(entry.expiresAt()) {
		if now.After(entry.StoredAt.Add(staleRetention)) {
			delete(c.entries, key)
			if c.kv != nil {
				c.kv.Delete(context.Background(), c.kvKey(key))
			}
		}
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value under the normalized symbol with the given TTL.
func (c *Cache[T]) Set(symbol string, value T, ttl time.Duration) {
	key := models.NormalizeSymbol(symbol)
	entry := cachedEntry[T]{
		Value:    value,
		StoredAt: c.now(),
		TTLMs:    ttl.Milliseconds(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	if c.kv != nil {
		if data, err := json.Marshal(entry); err == nil {
			if err := c.kv.Set(context.Background(), c.kvKey(key), string(data)); err != nil {
				c.logger.Warn().Err(err).Str("symbol", key).Msg("Price cache: failed to persist entry")
			}
		}
	}
}

// GetStale returns the cached value even when expired, without evicting it.
// Used as the fallback of last resort when the whole provider chain fails.
func (c *Cache[T]) GetStale(symbol string) (T, bool) {
	var zero T
	key := models.NormalizeSymbol(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	return entry.Value, true
}
