package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per caller. Idle buckets expire from the cache.
type RateLimiter struct {
	limiters  *cache.Cache
	limit     rate.Limit
	burst     int
	perMinute int
}

// NewRateLimiter allows perMinute requests per caller with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return newRateLimiter(perMinute, burst, 10*time.Minute)
}

// newRateLimiter evicts a caller's bucket after idle without use.
func newRateLimiter(perMinute, burst int, idle time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters:  cache.New(idle, 2*idle),
		limit:     rate.Limit(float64(perMinute) / 60),
		burst:     burst,
		perMinute: perMinute,
	}
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	v, ok := r.limiters.Get(key)
	if !ok {
		l := rate.NewLimiter(r.limit, r.burst)
		if err := r.limiters.Add(key, l, cache.DefaultExpiration); err == nil {
			return l
		}
		// another request created it first
		if v, ok = r.limiters.Get(key); !ok {
			return l
		}
	}
	l := v.(*rate.Limiter)
	// Get does not extend expiry; only idle buckets may be evicted
	r.limiters.Set(key, l, cache.DefaultExpiration)
	return l
}

// Allow reports whether key may make a request now.
func (r *RateLimiter) Allow(key string) bool {
	return r.limiter(key).Allow()
}

// Middleware limits by authenticated user, falling back to client IP.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := UserID(c); ok {
			key = "user:" + id.String()
		}

		if !r.Allow(key) {
			retry := 60
			if r.perMinute > 0 {
				retry = (60 + r.perMinute - 1) / r.perMinute
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please slow down"})
			return
		}
		c.Next()
	}
}
