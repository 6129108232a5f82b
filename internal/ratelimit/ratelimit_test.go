package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiterBurstPerKey(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := NewKeyedLimiter(time.Minute, 2, true)
	kl.now = func() time.Time { return now }

	assert.True(t, kl.Allow("b1"))
	assert.True(t, kl.Allow("b1"))
	assert.False(t, kl.Allow("b1"))
	assert.True(t, kl.Allow("b2"), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, kl.Allow("b1"))
	assert.False(t, kl.Allow("b1"))
}

func TestKeyedLimiterDisabled(t *testing.T) {
	kl := NewKeyedLimiter(time.Hour, 1, false)
	for i := 0; i < 10; i++ {
		assert.True(t, kl.Allow("b1"))
	}
	assert.False(t, kl.GetStats().Enabled)
}

func TestKeyedLimiterSweepsIdleKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := NewKeyedLimiter(time.Second, 1, true)
	kl.now = func() time.Time { return now }

	kl.Allow("a")
	kl.Allow("b")
	assert.Equal(t, 2, kl.GetStats().TrackedKeys)

	now = now.Add(11 * time.Minute)
	kl.Allow("c")
	stats := kl.GetStats()
	assert.Equal(t, 1, stats.TrackedKeys)
	assert.Equal(t, 60, stats.LimitPerMinute)

	kl.Reset()
	assert.Zero(t, kl.GetStats().TrackedKeys)
}

func TestKeyedLimiterKeepsSlowBucketsUntilRefilled(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := NewKeyedLimiter(time.Hour, 1, true)
	kl.now = func() time.Time { return now }

	assert.True(t, kl.Allow("a"))

	now = now.Add(11 * time.Minute)
	assert.False(t, kl.Allow("a"), "bucket must survive the sweep while empty")

	now = now.Add(time.Hour)
	assert.True(t, kl.Allow("a"))
}
