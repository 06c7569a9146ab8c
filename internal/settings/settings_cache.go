package settings

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "work_settings_cache"

// CacheKey namespaces the settings overlay per user so a shared device never
// leaks one user's settings into another session. The global key is only used
// before a user is known.
func CacheKey(userID string) string {
	if userID == "" {
		return cacheKeyPrefix
	}
	return cacheKeyPrefix + ":" + userID
}

// Cache is a best-effort key -> JSON blob store. Implementations must never
// fail a caller: a miss, a decode problem, or a backend outage all look like
// "no cached value".
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client) Cache {
	return &redisCache{rdb: rdb, ttl: 30 * 24 * time.Hour}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) {
	_ = c.rdb.Set(ctx, key, value, c.ttl).Err()
}

type memoryCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryCache is the in-process fallback used when Redis is not
// configured, and the fake of choice in tests.
func NewMemoryCache() Cache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}
