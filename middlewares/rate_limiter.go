package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type LimiterConfig struct {
	RPS     float64       // steady refill rate; zero disables the limiter
	Burst   int           // bucket size
	IdleTTL time.Duration // buckets unused for this long are dropped
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one in-memory token bucket per key.
type RateLimiter struct {
	conf      LimiterConfig
	now       func() time.Time
	mu        sync.Mutex
	buckets   map[string]*keyLimiter
	lastSweep time.Time
}

func NewRateLimiter(conf LimiterConfig) *RateLimiter {
	if conf.IdleTTL <= 0 {
		conf.IdleTTL = 10 * time.Minute
	}
	if conf.Burst <= 0 {
		conf.Burst = 1
	}
	return &RateLimiter{
		conf:    conf,
		now:     time.Now,
		buckets: make(map[string]*keyLimiter),
	}
}

func (rl *RateLimiter) Enabled() bool { return rl.conf.RPS > 0 }

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.conf.IdleTTL/2 {
		rl.sweep(now)
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	lim := rate.NewLimiter(rate.Limit(rl.conf.RPS), rl.conf.Burst)
	rl.buckets[key] = &keyLimiter{limiter: lim, lastSeen: now}
	return lim
}

// sweep drops idle buckets. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, v := range rl.buckets {
		if now.Sub(v.lastSeen) > rl.conf.IdleTTL {
			delete(rl.buckets, k)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// KeySelector picks the bucket for a request. An empty key skips limiting.
type KeySelector func(c *gin.Context) string

func (rl *RateLimiter) Middleware(selectKey KeySelector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}
		key := selectKey(c)
		if key == "" {
			c.Next()
			return
		}

		if !rl.getLimiter(key).AllowN(rl.now(), 1) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": "Request was throttled. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
