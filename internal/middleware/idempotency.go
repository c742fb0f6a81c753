package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

// responseWriter wraps gin.ResponseWriter to capture the response body for
// idempotency caching.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware returns middleware enforcing the idempotency cache
// contract for a given endpoint category: POST/PUT/PATCH requests
// carrying an Idempotency-Key header are replayed verbatim on a cache hit;
// absence of the header bypasses the cache entirely.
func IdempotencyMiddleware(cache *idempotency.Cache, category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		cached, err := cache.Get(ctx, category, key)
		if err != nil {
			// Cache unreachable: proceed without idempotency rather than fail
			// the request over a best-effort optimization.
			c.Next()
			return
		}
		if cached != nil {
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		if idempotency.ShouldCacheStatus(c.Writer.Status()) {
			resp := &idempotency.Response{
				StatusCode:  c.Writer.Status(),
				Body:        w.body.Bytes(),
				ContentType: c.Writer.Header().Get("Content-Type"),
			}
			_ = cache.Put(ctx, category, key, resp)
		}
	}
}
