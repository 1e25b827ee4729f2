package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/qenanews/cardbot/internal/logger"
)

// Limiter caps requests to a paid API within a rolling window. A max of 0
// allows nothing.
type Limiter struct {
	mu        sync.Mutex
	name      string
	count     int
	max       int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
}

// New creates a limiter allowing max requests per window.
func New(name string, max int, window time.Duration) *Limiter {
	l := &Limiter{name: name, max: max, window: window, now: time.Now}
	l.resetTime = l.now().Add(window)
	return l
}

// CanUse checks if another request fits the budget
func (l *Limiter) CanUse() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()
	if l.count >= l.max {
		logger.Debug("rate limit reached", "api", l.name, "used", l.count, "limit", l.max)
		return false
	}
	return true
}

// Use records a request, failing when the budget is spent.
func (l *Limiter) Use() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()
	if l.count >= l.max {
		return fmt.Errorf("%s rate limit exceeded (%d/%d)", l.name, l.count, l.max)
	}
	l.count++
	return nil
}

// GetStats returns current limiter statistics
func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		l.name + "_used":  l.count,
		l.name + "_limit": l.max,
		"reset_time":      l.resetTime,
	}
}

// checkReset resets the counter if reset time has passed
func (l *Limiter) checkReset() {
	if l.now().After(l.resetTime) {
		logger.Debug("resetting rate limiter", "api", l.name, "used", l.count)
		l.count = 0
		l.resetTime = l.now().Add(l.window)
	}
}
