// Package ratelimit implements the fixed-window call counter guarding the
// notification write path. Fixed windows admit up to ~2x burst at window
// boundaries; that imprecision is accepted in exchange for a counter per key
// instead of a timestamp list.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Limiter counts calls per (identity, route) key. State is process-local
// and resets on restart.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*window
	now      func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		counters: make(map[string]*window),
		now:      time.Now,
	}
}

// Allow records a call for (identity, route) and reports whether it is
// within maxCalls per period. The first call starts a window; once the
// window has elapsed the counter resets to a fresh count of 1.
func (l *Limiter) Allow(identity, route string, maxCalls int, period time.Duration) bool {
	if maxCalls <= 0 {
		return false
	}

	key := identity + "\x00" + route

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.counters[key]
	if !ok || now.Sub(w.start) >= period {
		l.counters[key] = &window{count: 1, start: now}
		return true
	}
	if w.count >= maxCalls {
		return false
	}
	w.count++
	return true
}

// Reset clears all counters. Intended for tests and shutdown.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters = make(map[string]*window)
}
