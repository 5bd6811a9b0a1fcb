// Package memory is an in-process cache used when no redis is configured.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// SetNX stores val under key unless a live entry exists. A ttl of zero or
// less keeps the key until restart.
func (m *MemoryCache) SetNX(_ context.Context, key, val string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	if err := m.items.Add(key, val, ttl); err != nil {
		return false, nil
	}
	return true, nil
}
