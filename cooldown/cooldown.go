// Package cooldown rate-limits verification attempts per user.
//
// A Limiter remembers the time of each user's last accepted attempt. An
// attempt inside the window is rejected and does not move the timestamp.
// Entries older than the retention period carry no information (an absent
// entry is always allowed) and are dropped by Sweep.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Limiter - per-user attempt limiter
type Limiter struct {
	window    time.Duration
	retention time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// New - limiter rejecting attempts closer than window to the previous accepted one.
// Retention below window is raised to window.
func New(window, retention time.Duration) *Limiter {
	if retention < window {
		retention = window
	}
	return &Limiter{
		window:    window,
		retention: retention,
		last:      make(map[string]time.Time),
	}
}

// Window - the cooldown duration
func (l *Limiter) Window() time.Duration {
	return l.window
}

// CheckAndRecord - report whether userID may attempt at now, recording now if so
func (l *Limiter) CheckAndRecord(userID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[userID]; ok && now.Sub(last) < l.window {
		return false
	}
	l.last[userID] = now
	return true
}

// Last - time of the user's last accepted attempt
func (l *Limiter) Last(userID string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.last[userID]
	return t, ok
}

// Reset - forget a user's last attempt
func (l *Limiter) Reset(userID string) {
	l.mu.Lock()
	delete(l.last, userID)
	l.mu.Unlock()
}

// Len - number of tracked users
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}

// Sweep - drop entries at least retention old, returns how many were removed
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int
	for id, last := range l.last {
		if now.Sub(last) >= l.retention {
			delete(l.last, id)
			removed++
		}
	}
	return removed
}

// Run - sweep every interval until ctx is done
func (l *Limiter) Run(ctx context.Context, clock clockwork.Clock, interval time.Duration, onSweep func(removed int)) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			removed := l.Sweep(now)
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
