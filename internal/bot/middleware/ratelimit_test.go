package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
	assert.True(t, rl.Allow(2), "лимит считается на пользователя")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow(1))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow(1)
	rl.Allow(2)

	now = now.Add(2 * time.Minute)
	rl.Allow(2)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.requests, int64(1))
	assert.Len(t, rl.requests[2], 1)
}
