// Package idempotency implements a string->string Redis cache with TTL,
// namespaced per endpoint category so that a key presented to two different
// endpoint categories never collides.
package idempotency

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL is how long a cached response survives.
const TTL = 300 * time.Second

const keyPrefix = "idempotency:"

// Response is the cached shape of a prior 2xx response.
type Response struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

// Cache is the Redis-backed idempotency store.
type Cache struct {
	client *redis.Client
}

// NewCache builds a Cache over an existing Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached response for (category, key), or nil, nil on a
// cache miss. Absence of key upstream should bypass the cache entirely —
// callers must not call Get with an empty key.
func (c *Cache) Get(ctx context.Context, category, key string) (*Response, error) {
	data, err := c.client.Get(ctx, cacheKey(category, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Put stores resp for (category, key) with TTL 300s. Only called for
// successful (2xx) completions.
func (c *Cache) Put(ctx context.Context, category, key string, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(category, key), data, TTL).Err()
}

// ShouldCacheStatus reports whether a response of this status is eligible
// for caching under an idempotency key.
func ShouldCacheStatus(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func cacheKey(category, key string) string {
	return keyPrefix + category + ":" + key
}
