package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(Config{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("user"))
	}
	assert.Zero(t, l.RetryAfter("user"))

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("user"))
}

func TestLimiter_PerUserBurst(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 2})

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"), "third command within a minute should be limited")
	assert.Positive(t, l.RetryAfter("alice"))

	// Other users have their own bucket.
	assert.True(t, l.Allow("bob"))
}

func TestLimiter_ExplicitBurst(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1})

	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
}
