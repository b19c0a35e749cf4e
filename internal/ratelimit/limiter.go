package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits or rejects requests per identity using a sliding window:
// at most Max requests within any Window. Entries older than the window are
// evicted lazily on each admission check.
type Limiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// New creates a limiter allowing max requests per window.
func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = 60 * time.Second
	}
	if max <= 0 {
		max = 5
	}
	return &Limiter{
		window:  window,
		max:     max,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Admit records and admits a request from identity, or rejects it without
// recording when the window is full. Evict-check-append runs as a single
// critical section so concurrent requests from the same identity cannot
// interleave.
func (l *Limiter) Admit(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.trim(identity, now)

	if len(w) >= l.max {
		l.windows[identity] = w
		return false
	}
	l.windows[identity] = append(w, now)
	return true
}

// Remaining reports how many more requests identity may make right now.
func (l *Limiter) Remaining(identity string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.trim(identity, l.now())
	l.windows[identity] = w
	if n := l.max - len(w); n > 0 {
		return n
	}
	return 0
}

// trim drops timestamps older than the window. Timestamps are stored in
// arrival order, so eviction is a prefix cut.
func (l *Limiter) trim(identity string, now time.Time) []time.Time {
	w := l.windows[identity]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(w) && !w[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w = append([]time.Time(nil), w[i:]...)
	}
	return w
}
