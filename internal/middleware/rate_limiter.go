package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"famnet-backend/internal/observability"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter tracks request rates per client IP with expiring entries.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

func newIPRateLimiter(requests int, window time.Duration) *ipRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		ttl:      5 * time.Minute,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	now := time.Now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	for key, vis := range l.visitors {
		if now.Sub(vis.lastSeen) > l.ttl {
			delete(l.visitors, key)
		}
	}
	l.mu.Unlock()

	return v.limiter.Allow()
}

// RateLimitMiddleware rejects callers exceeding the per-IP request budget.
func RateLimitMiddleware(maxRequests, windowSeconds int) gin.HandlerFunc {
	limiter := newIPRateLimiter(maxRequests, time.Duration(windowSeconds)*time.Second)
	return func(c *gin.Context) {
		ip := observability.IPFromRequest(c.Request)
		if !limiter.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
