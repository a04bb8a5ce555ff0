// internal/llm/cache.go
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores model responses in Redis keyed by task, prompt version,
// input hash, and model, so replaying an identical request never pays for a
// second completion.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCache creates a response cache. A nil client or non-positive ttl
// disables caching.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

// Key derives the cache key for one request.
func (c *Cache) Key(task, promptVersion, input, model string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%s:%s:%s:%s", task, promptVersion, hex.EncodeToString(sum[:]), model)
}

// Get returns the cached response and whether it was present. Cache errors
// degrade to a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Put stores a response. Failures are ignored: the cache is an optimization,
// not a dependency.
func (c *Cache) Put(ctx context.Context, key, value string) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, key, value, c.ttl).Err()
}
