package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc derives a rate-limit bucket key from the request.
type keyFunc func(c *gin.Context) string

// KeyByUserOrIP buckets authenticated traffic per user and anonymous
// traffic per client IP.
func KeyByUserOrIP(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(int64); ok && id > 0 {
			return "user:" + strconv.FormatInt(id, 10)
		}
	}
	return "ip:" + c.ClientIP()
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token-bucket limit per key with opportunistic
// eviction of idle buckets.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	key      keyFunc
}

// NewRateLimiter builds a limiter allowing rps requests per second with the
// given burst per key. Buckets idle longer than ttl are evicted lazily.
func NewRateLimiter(rps float64, burst int, ttl time.Duration, key keyFunc) *RateLimiter {
	if key == nil {
		key = KeyByUserOrIP
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		key:      key,
	}
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	// Sweep stale buckets while we hold the lock.
	for k, vv := range rl.visitors {
		if now.Sub(vv.lastSeen) > rl.ttl {
			delete(rl.visitors, k)
		}
	}
	return v.limiter
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(rl.key(c)).Allow() {
			rid, _ := c.Get(requestIDKey)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": asString(rid),
				"code":       "too_many_requests",
				"message":    "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
