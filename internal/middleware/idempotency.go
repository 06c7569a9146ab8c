package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julikubo/timesupa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CachedResponse is what a completed handler stores for replay: the original
// status code plus the exact envelope that was sent, so a retried request is
// indistinguishable from the first one.
type CachedResponse struct {
	Status   int                  `json:"status"`
	Envelope response.ApiEnvelope `json:"envelope"`
}

// Idempotency guards POST endpoints against duplicate submissions. The core
// does not serialize clock actions internally, so double-clicked clock-in or
// clock-out requests are collapsed here at the transport edge.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		userID := c.GetString("user_id_validated")

		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)
		lockKey := cacheKey + ":lock"

		// Replay the cached response when this key was already processed.
		// Malformed cache content is treated as a miss.
		if val, err := rdb.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var cached CachedResponse
			if jerr := json.Unmarshal([]byte(val), &cached); jerr == nil && cached.Status != 0 {
				c.AbortWithStatusJSON(cached.Status, cached.Envelope)
				return
			}
		}

		// Atomic lock via SetNX. Short expiry so a crashed server releases it.
		isNew, _ := rdb.SetNX(c.Request.Context(), lockKey, "locked", 30*time.Second).Result()

		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "PROCESSING",
				"message": "Your request is still being processed, please wait.",
			})
			return
		}

		// Handlers delete the lock and fill the cache once done.
		c.Set("idempotency_cache_key", cacheKey)
		c.Set("idempotency_lock_key", lockKey)

		c.Next()
	}
}
