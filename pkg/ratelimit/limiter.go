// Package ratelimit throttles command invocations per author.
// It keeps one token bucket per user; buckets are created on first use.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerMinute is the sustained rate per user. Zero disables limiting.
	RequestsPerMinute int
	// Burst is how many commands a user may send back to back. Defaults to
	// RequestsPerMinute when zero.
	Burst int
}

func (c Config) Enabled() bool {
	return c.RequestsPerMinute > 0
}

// Limiter implements a per-user token bucket rate limiter.
type Limiter struct {
	config  Config
	limit   rate.Limit
	burst   int
	buckets sync.Map // map[string]*rate.Limiter
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	l := &Limiter{config: config}
	if config.Enabled() {
		l.limit = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
		l.burst = config.Burst
		if l.burst <= 0 {
			l.burst = config.RequestsPerMinute
		}
	}
	return l
}

// Allow reports whether userID may run a command now, consuming a token if
// so. A nil Limiter allows everything.
func (l *Limiter) Allow(userID string) bool {
	if l == nil || !l.config.Enabled() {
		return true
	}
	return l.bucket(userID).Allow()
}

// RetryAfter is how long userID has to wait for the next token.
func (l *Limiter) RetryAfter(userID string) time.Duration {
	if l == nil || !l.config.Enabled() {
		return 0
	}
	r := l.bucket(userID).Reserve()
	defer r.Cancel()
	return r.Delay()
}

func (l *Limiter) bucket(userID string) *rate.Limiter {
	if cached, ok := l.buckets.Load(userID); ok {
		return cached.(*rate.Limiter)
	}
	actual, _ := l.buckets.LoadOrStore(userID, rate.NewLimiter(l.limit, l.burst))
	return actual.(*rate.Limiter)
}
