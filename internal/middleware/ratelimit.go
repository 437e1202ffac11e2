// Package middleware provides HTTP middleware for the wifimap API.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets is the maximum number of tracked clients to prevent memory exhaustion.
const maxBuckets = 100_000

// Limit is a token bucket refill rate and capacity. Rates below one per
// second are allowed, so an upload budget can be expressed per minute.
type Limit struct {
	PerSecond float64
	Burst     int
}

// PerMinute returns a Limit that refills n tokens a minute.
func PerMinute(n float64, burst int) Limit {
	return Limit{PerSecond: n / 60, Burst: burst}
}

// RateLimiter implements a token bucket rate limiter per client IP.
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	limit   Limit
	scope   string
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// allow takes a token if one is available and otherwise reports how long
// until the next one.
func (b *bucket) allow(now time.Time, l Limit) (bool, time.Duration) {
	b.tokens = math.Min(float64(l.Burst), b.tokens+now.Sub(b.lastFill).Seconds()*l.PerSecond)
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	if l.PerSecond <= 0 {
		return false, time.Minute
	}

	return false, time.Duration((1 - b.tokens) / l.PerSecond * float64(time.Second))
}

// NewRateLimiter creates a RateLimiter. scope names the limiter in its 429
// messages. A background goroutine evicts idle buckets until ctx is cancelled.
func NewRateLimiter(ctx context.Context, scope string, limit Limit) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		scope:   scope,
		now:     time.Now,
	}
	go rl.startCleanup(ctx)

	return rl
}

// idleAfter is how long a bucket must be untouched before it is evicted. It
// covers a full refill so eviction never hands a client extra tokens.
func (rl *RateLimiter) idleAfter() time.Duration {
	idle := 10 * time.Minute
	if rl.limit.PerSecond > 0 {
		full := time.Duration(float64(rl.limit.Burst) / rl.limit.PerSecond * float64(time.Second))
		idle = max(idle, full)
	}

	return idle
}

func (rl *RateLimiter) startCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	idle := rl.idleAfter()
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.lastFill) > idle {
			delete(rl.buckets, ip)
		}
	}
}

// Handler returns Gin middleware that applies the limit per client IP.
// Rejections carry a Retry-After header in whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// c.ClientIP() is safe from X-Forwarded-For spoofing because
		// SetTrustedProxies(nil) in router.go disables proxy header trust.
		ip := c.ClientIP()
		now := rl.now()

		rl.mu.Lock()
		b, ok := rl.buckets[ip]
		if !ok {
			if len(rl.buckets) >= maxBuckets {
				rl.mu.Unlock()
				respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "too many clients")

				return
			}

			b = &bucket{tokens: float64(rl.limit.Burst), lastFill: now}
			rl.buckets[ip] = b
		}

		allowed, wait := b.allow(now, rl.limit)
		rl.mu.Unlock()

		if !allowed {
			secs := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, rl.scope+" rate limit exceeded")

			return
		}

		c.Next()
	}
}
