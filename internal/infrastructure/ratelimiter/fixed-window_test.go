package ratelimiter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pointdeck/pointdeck/internal/infrastructure/ratelimiter"
)

func TestAllowUnderLimit(t *testing.T) {
	rl := ratelimiter.NewFixedWindowRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok)
	}
}

func TestDenyOverLimit(t *testing.T) {
	rl := ratelimiter.NewFixedWindowRateLimiter(2, time.Minute)
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")

	ok, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestSourcesAreIndependent(t *testing.T) {
	rl := ratelimiter.NewFixedWindowRateLimiter(1, time.Minute)
	defer rl.Close()

	rl.Allow("10.0.0.1")
	ok, _ := rl.Allow("10.0.0.2")
	assert.True(t, ok, "one noisy source must not starve another")
}

func TestWindowResets(t *testing.T) {
	rl := ratelimiter.NewFixedWindowRateLimiter(1, 20*time.Millisecond)
	defer rl.Close()

	rl.Allow("10.0.0.1")
	ok, _ := rl.Allow("10.0.0.1")
	assert.False(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
}
