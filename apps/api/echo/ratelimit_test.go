package echoapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()

	assert.True(t, rl.get("10.0.0.1").Allow())
	assert.True(t, rl.get("10.0.0.1").Allow())
	assert.False(t, rl.get("10.0.0.1").Allow())
	assert.True(t, rl.get("10.0.0.2").Allow(), "buckets are per ip")

	rl.Stop() // idempotent
}

func TestRateLimiter_unlimited(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, rl.get("10.0.0.1").Allow())
	}
}
