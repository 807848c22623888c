package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/veesix-networks/dhcpagent/pkg/cache"
)

const defaultCleanupInterval = 30 * time.Second

type Cache struct {
	items *gocache.Cache
	// serializes Take so a key is handed out once
	mu sync.Mutex
}

// New returns an in-process cache. Entries stored with a zero ttl use
// defaultTTL; a zero defaultTTL keeps them until deleted.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &Cache{
		items: gocache.New(defaultTTL, defaultCleanupInterval),
	}
}

var _ cache.Cache = (*Cache)(nil)

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrNotFound, key)
	}
	return v.([]byte), nil
}

func (c *Cache) Take(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrNotFound, key)
	}
	c.items.Delete(key)
	return v.([]byte), nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

func (c *Cache) Len() int {
	return c.items.ItemCount()
}

func (c *Cache) Close() error {
	c.items.Flush()
	return nil
}
