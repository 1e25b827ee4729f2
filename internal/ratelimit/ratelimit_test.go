package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBudget(t *testing.T) {
	l := New("gemini", 2, time.Hour)
	assert.True(t, l.CanUse())
	assert.NoError(t, l.Use())
	assert.NoError(t, l.Use())
	assert.False(t, l.CanUse())
	assert.Error(t, l.Use())
	assert.Equal(t, 2, l.GetStats()["gemini_used"])
}

func TestLimiterZeroAllowsNothing(t *testing.T) {
	l := New("gemini", 0, time.Hour)
	assert.False(t, l.CanUse())
	assert.Error(t, l.Use())
}

func TestLimiterResets(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New("gemini", 1, time.Hour)
	l.now = func() time.Time { return now }
	l.resetTime = now.Add(time.Hour)

	assert.NoError(t, l.Use())
	assert.False(t, l.CanUse())

	now = now.Add(2 * time.Hour)
	assert.True(t, l.CanUse())
}
