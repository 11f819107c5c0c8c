package signal

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/duocall/internal/core"
)

// ClaimRateLimiter is a sliding-window limit on identity claims per
// connection. A nil limiter allows everything.
type ClaimRateLimiter struct {
	mu       sync.Mutex
	clock    clock.Clock
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
}

func NewClaimRateLimiter(clk clock.Clock, limit int, interval time.Duration) *ClaimRateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &ClaimRateLimiter{
		clock:    clk,
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *ClaimRateLimiter) Allow(sid core.SessionID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	rl.history[sid] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *ClaimRateLimiter) Forget(sid core.SessionID) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
