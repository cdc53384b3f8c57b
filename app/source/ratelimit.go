package source

import (
	"sync"
	"time"
)

// Limiter is a per-source token bucket. Allow is the single mutation point:
// checking for an available token and consuming it happen under one lock so
// two concurrent calls can never both spend the last token.
type Limiter struct {
	mu       sync.Mutex
	capacity int
	tokens   float64
	refill   time.Duration // time to restore one token
	last     time.Time
	now      func() time.Time // test hook
}

func NewLimiter(capacity int, refillInterval time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if refillInterval <= 0 {
		refillInterval = time.Second
	}
	l := &Limiter{
		capacity: capacity,
		tokens:   float64(capacity),
		refill:   refillInterval,
		now:      time.Now,
	}
	l.last = l.now()
	return l
}

// Allow consumes one token if available and reports whether it did.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.last)
	if elapsed > 0 {
		l.tokens += float64(elapsed) / float64(l.refill)
		if l.tokens > float64(l.capacity) {
			l.tokens = float64(l.capacity)
		}
		l.last = now
	}

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Remaining returns the whole tokens currently available. Diagnostic only.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.tokens)
}
