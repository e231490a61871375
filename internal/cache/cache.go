package cache

import (
	"sync"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// Cache is a thread-safe last-value store keyed by normalized symbol.
type Cache struct {
	mu     sync.RWMutex
	prices map[string]model.PriceSnapshot
}

// New creates an empty price cache.
func New() *Cache {
	return &Cache{
		prices: make(map[string]model.PriceSnapshot),
	}
}

// Put stores a snapshot, replacing any prior entry for the symbol wholesale.
// A snapshot whose ObservedAt precedes the cached entry's is rejected, so an
// in-flight tick from a stale connection cannot overwrite a newer price
// during a reconnect race. Returns false if the write was rejected.
func (c *Cache) Put(snap model.PriceSnapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.prices[snap.Symbol]; ok && prev.ObservedAt.After(snap.ObservedAt) {
		return false
	}
	c.prices[snap.Symbol] = snap
	return true
}

// Get returns the cached snapshot for a symbol, if one exists.
func (c *Cache) Get(symbol string) (model.PriceSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.prices[symbol]
	return snap, ok
}

// GetMany returns the cached snapshots for the given symbols. Symbols never
// yet observed are omitted from the result.
func (c *Cache) GetMany(symbols []string) []model.PriceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.PriceSnapshot, 0, len(symbols))
	for _, sym := range symbols {
		if snap, ok := c.prices[sym]; ok {
			result = append(result, snap)
		}
	}
	return result
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}
