package source

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sabuysoft/wms-import/internal/importer"
)

// Cache stores fetched datasets keyed by module and source URL.
// Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (rows []importer.RawRow, expires time.Time, ok bool)
	Set(ctx context.Context, key string, rows []importer.RawRow, ttl time.Duration)
}

// MemoryCache is the in-process default. Entries expire lazily on Get.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	rows    []importer.RawRow
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]importer.RawRow, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, time.Time{}, false
	}
	return e.rows, e.expires, true
}

func (c *MemoryCache) Set(_ context.Context, key string, rows []importer.RawRow, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{rows: rows, expires: time.Now().Add(ttl)}
}

// RedisCache shares preview datasets across server instances. Entries
// carry their expiry inside the value so Get can report it; Redis TTL
// handles eviction.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

type redisEnvelope struct {
	Rows    []importer.RawRow `json:"rows"`
	Expires time.Time         `json:"expires"`
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "wms:preview:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]importer.RawRow, time.Time, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, time.Time{}, false
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.rdb.Del(ctx, c.prefix+key)
		return nil, time.Time{}, false
	}
	return env.Rows, env.Expires, true
}

func (c *RedisCache) Set(ctx context.Context, key string, rows []importer.RawRow, ttl time.Duration) {
	raw, err := json.Marshal(redisEnvelope{Rows: rows, Expires: time.Now().Add(ttl)})
	if err != nil {
		return
	}
	c.rdb.Set(ctx, c.prefix+key, raw, ttl)
}

