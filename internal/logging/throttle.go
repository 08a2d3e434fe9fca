package logging

import (
	"sync"
	"time"
)

// Throttle lets a message through at most once per cooldown window.
// The zero value is not usable; create one with NewThrottle.
type Throttle struct {
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewThrottle creates a Throttle with the given cooldown.
func NewThrottle(cooldown time.Duration) *Throttle {
	return &Throttle{cooldown: cooldown, now: time.Now}
}

// Allow reports whether a message may be logged now and, if so, starts a
// new cooldown window.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.cooldown {
		return false
	}
	t.last = now
	return true
}
