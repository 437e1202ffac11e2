package middleware

import (
	"context"
	"math"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LockoutPolicy controls when repeated authentication failures lock a client
// out. Each lockout served back to back doubles the next one up to MaxLockout.
type LockoutPolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
	MaxLockout  time.Duration
}

// DefaultLockoutPolicy allows five bad keys in fifteen minutes.
var DefaultLockoutPolicy = LockoutPolicy{
	MaxAttempts: 5,
	Window:      15 * time.Minute,
	Lockout:     5 * time.Minute,
	MaxLockout:  time.Hour,
}

const (
	guardSweepInterval = time.Minute
	guardMaxClients    = 10_000
)

type strike struct {
	count     int
	since     time.Time
	until     time.Time // zero unless locked
	lockouts  int
	lastTouch time.Time
}

// BruteForceGuard counts authentication failures per client address.
type BruteForceGuard struct {
	mu      sync.Mutex
	strikes map[string]*strike
	policy  LockoutPolicy
	log     *logrus.Logger
	now     func() time.Time
}

// NewBruteForceGuard returns a guard using DefaultLockoutPolicy. Stale
// entries are swept until ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	return NewBruteForceGuardWithPolicy(ctx, log, DefaultLockoutPolicy)
}

// NewBruteForceGuardWithPolicy is NewBruteForceGuard with an explicit policy.
func NewBruteForceGuardWithPolicy(ctx context.Context, log *logrus.Logger, policy LockoutPolicy) *BruteForceGuard {
	g := &BruteForceGuard{
		strikes: make(map[string]*strike),
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
	go g.sweepLoop(ctx)

	return g
}

// LockedFor returns how much longer client stays locked out, or zero.
func (g *BruteForceGuard) LockedFor(client string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.strikes[client]
	if !ok || s.until.IsZero() {
		return 0
	}

	return max(s.until.Sub(g.now()), 0)
}

// IsBlocked reports whether client is currently locked out.
func (g *BruteForceGuard) IsBlocked(client string) bool {
	return g.LockedFor(client) > 0
}

// RecordFailure counts a failed attempt by client and locks it out once the
// policy threshold is reached inside the window.
func (g *BruteForceGuard) RecordFailure(client string) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.strikes[client]
	if !ok {
		if len(g.strikes) >= guardMaxClients {
			g.evictLocked(len(g.strikes) - guardMaxClients + 1)
		}

		s = &strike{since: now}
		g.strikes[client] = s
	}

	s.lastTouch = now

	if !s.until.IsZero() && now.After(s.until) {
		// Lockout expired; the next strike round starts fresh but keeps
		// the escalation count.
		s.count, s.since, s.until = 0, now, time.Time{}
	}

	if now.Sub(s.since) > g.policy.Window {
		s.count, s.since, s.lockouts = 0, now, 0
	}

	s.count++
	if s.count < g.policy.MaxAttempts {
		return
	}

	lockout := g.lockoutFor(s.lockouts)
	s.until = now.Add(lockout)
	s.lockouts++

	g.log.WithFields(logrus.Fields{
		"client":   client,
		"attempts": s.count,
		"lockout":  lockout.String(),
	}).Warn("client locked out after repeated auth failures")
}

func (g *BruteForceGuard) lockoutFor(prior int) time.Duration {
	d := float64(g.policy.Lockout) * math.Pow(2, float64(prior))
	if g.policy.MaxLockout > 0 && d > float64(g.policy.MaxLockout) {
		return g.policy.MaxLockout
	}

	return time.Duration(d)
}

// Reset forgets client, as after a successful authentication.
func (g *BruteForceGuard) Reset(client string) {
	g.mu.Lock()
	delete(g.strikes, client)
	g.mu.Unlock()
}

func (g *BruteForceGuard) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(guardSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *BruteForceGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for client, s := range g.strikes {
		locked := !s.until.IsZero() && now.Before(s.until)
		if !locked && now.Sub(s.lastTouch) > g.policy.Window {
			delete(g.strikes, client)
		}
	}
}

// evictLocked drops the n least recently touched clients. g.mu must be held.
func (g *BruteForceGuard) evictLocked(n int) {
	type aged struct {
		client string
		touch  time.Time
	}

	all := make([]aged, 0, len(g.strikes))
	for client, s := range g.strikes {
		all = append(all, aged{client, s.lastTouch})
	}

	slices.SortFunc(all, func(a, b aged) int { return a.touch.Compare(b.touch) })

	for _, a := range all[:min(n, len(all))] {
		delete(g.strikes, a.client)
	}
}

// BruteForceMiddleware rejects locked-out clients with 429 and a Retry-After
// header before the API key is even checked.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait := guard.LockedFor(c.ClientIP())
		if wait <= 0 {
			c.Next()

			return
		}

		secs := max(int(math.Ceil(wait.Seconds())), 1)
		c.Header("Retry-After", strconv.Itoa(secs))
		respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "too many failed authentication attempts")
	}
}
