package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"ride/internal/apperr"
)

// RateLimiter enforces a fixed-window request cap per client key, backed by
// a Redis INCR+EXPIRE counter: the first request in a window sets the TTL,
// every subsequent one just increments, and the window resets itself once
// the key expires rather than needing a sweep.
type RateLimiter struct {
	client   *redis.Client
	category string
	limit    int64
	window   time.Duration
	keyFunc  func(c *gin.Context) string
}

// NewRateLimiter builds a RateLimiter for one of the rate-limit classes at
// the system boundary: general, location updates, and payment creation,
// each with its own limit/window/client-key shape.
func NewRateLimiter(client *redis.Client, category string, limit int64, window time.Duration, keyFunc func(c *gin.Context) string) *RateLimiter {
	return &RateLimiter{client: client, category: category, limit: limit, window: window, keyFunc: keyFunc}
}

// Middleware returns the gin.HandlerFunc enforcing the limit. A Redis
// failure fails open — the same posture the idempotency cache takes —
// since a rate limiter that can take down the service on a cache outage is
// worse than one that occasionally over-admits.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := rl.keyFunc(c)
		if clientKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := fmt.Sprintf("ratelimit:%s:%s", rl.category, clientKey)

		count, err := rl.client.Incr(ctx, redisKey).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rl.client.Expire(ctx, redisKey, rl.window)
		}

		if count > rl.limit {
			err := apperr.New(apperr.RateLimited, "rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ByClientID keys the limiter on an explicit client identifier header or
// query param, falling back to the remote address.
func ByClientID(paramName string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		if v := c.GetHeader("X-Client-ID"); v != "" {
			return v
		}
		if v := c.Query(paramName); v != "" {
			return v
		}
		return c.ClientIP()
	}
}

// ByDriverID keys the limiter on the :id path param of a driver-scoped route.
func ByDriverID(c *gin.Context) string {
	return c.Param("id")
}
