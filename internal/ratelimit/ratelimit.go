// Package ratelimit implements a best-effort fixed-window request
// throttle keyed by client address. It is advisory, not a security
// boundary: counts live in process memory and read-then-increment is
// not coordinated across processes. Known scaling limit for
// multi-process deployments.
package ratelimit

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key within a fixed time window.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration

	stopSweep chan struct{}
	wg        sync.WaitGroup
}

func NewLimiter(limit int, period time.Duration) *Limiter {
	l := &Limiter{
		windows:   make(map[string]*window),
		limit:     limit,
		period:    period,
		stopSweep: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.sweepLoop()

	return l
}

// Allow reports whether the request for key fits the current window and
// counts it when it does.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// sweepLoop periodically drops expired windows so idle keys do not
// accumulate.
func (l *Limiter) sweepLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopSweep:
			return
		}
	}
}

func (l *Limiter) sweep() {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// Close stops the background sweep and waits for it to finish.
func (l *Limiter) Close() error {
	close(l.stopSweep)
	l.wg.Wait()
	return nil
}
