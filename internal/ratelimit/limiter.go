// Package ratelimit provides token bucket rate limiting for MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned by Tools.Check when a tool's bucket is empty.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter is a single token bucket. It starts full and refills at rate
// tokens per second up to burst. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
}

// NewLimiter creates a full bucket with the given refill rate and capacity.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		rate:   rate,
		burst:  float64(burst),
		tokens: float64(burst),
		now:    time.Now,
	}
}

// Allow takes one token if available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
			l.tokens = min(l.burst, l.tokens+l.rate*elapsed)
		}
	}
	l.last = now

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Tools maps tool names to their limiters.
type Tools map[string]*Limiter

// NewTools returns the default per-tool limits.
func NewTools() Tools {
	return Tools{
		"jitter_analyze": NewLimiter(6.0/60.0, 2), // 6/minute, burst 2
		"jitter_history": NewLimiter(1.0, 10),     // 60/minute, burst 10
	}
}

// Check takes a token for tool. Tools without a limiter are always allowed.
func (t Tools) Check(tool string) error {
	l, ok := t[tool]
	if !ok {
		return nil
	}
	if !l.Allow() {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, tool)
	}
	return nil
}
