package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type QuotaRule struct {
	Limit  int                      // requests allowed per window
	Window time.Duration            // window length, e.g. 24h
	KeyFn  func(*gin.Context) string // empty key skips the quota
}

// Quota counts requests per key in Redis with INCR and a TTL set on the
// first hit of each window. A nil client or a non-positive limit disables it.
func Quota(rdb *redis.Client, rule QuotaRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || rule.Limit <= 0 {
			c.Next()
			return
		}
		key := rule.KeyFn(c)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis unavailable: let the request through.
			Logger(c).Warn().Err(err).Str("key", key).Msg("quota check skipped")
			c.Next()
			return
		}
		if n == 1 {
			_ = rdb.Expire(ctx, key, rule.Window).Err()
		}
		if int(n) > rule.Limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "Usage quota exceeded. Please try again later.",
			})
			return
		}
		c.Header("X-Quota-Used", fmt.Sprintf("%d/%d", n, rule.Limit))
		c.Next()
	}
}

// UserQuotaKey keys the daily quota by authenticated user; anonymous
// callers get no key and are not counted.
func UserQuotaKey(c *gin.Context) string {
	uid := CallerFrom(c).UserID
	if uid == 0 {
		return ""
	}
	return fmt.Sprintf("quota:user:%d:day", uid)
}
