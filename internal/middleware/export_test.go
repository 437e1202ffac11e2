package middleware

import "time"

// SetClock replaces the limiter clock.
func (rl *RateLimiter) SetClock(now func() time.Time) { rl.now = now }

// SetClock replaces the guard clock.
func (g *BruteForceGuard) SetClock(now func() time.Time) { g.now = now }
