// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package credential

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userBucket is one user's token bucket and when it was last consulted.
type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// attemptLimiter throttles secret attempts per user. Buckets of users that
// stay idle longer than staleAge are evicted by a background sweep.
type attemptLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*userBucket
	limit    rate.Limit
	burst    int
	staleAge time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func newAttemptLimiter(perSecond float64, burst int, staleAge, sweepInterval time.Duration) *attemptLimiter {
	al := &attemptLimiter{
		buckets:  make(map[string]*userBucket),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		staleAge: staleAge,
		done:     make(chan struct{}),
	}
	go al.sweep(sweepInterval)
	return al
}

// Allow takes a token for user. When none is available it returns false
// and how long until the next one, without consuming anything.
func (al *attemptLimiter) Allow(user string) (bool, time.Duration) {
	now := time.Now()

	al.mu.Lock()
	defer al.mu.Unlock()

	b, ok := al.buckets[user]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(al.limit, al.burst)}
		al.buckets[user] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, rate.InfDuration
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Stop ends the background sweep. Stop is idempotent.
func (al *attemptLimiter) Stop() {
	al.stopOnce.Do(func() { close(al.done) })
}

func (al *attemptLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-al.done:
			return
		case now := <-ticker.C:
			al.evictIdle(now)
		}
	}
}

// evictIdle drops buckets not consulted within staleAge of now.
func (al *attemptLimiter) evictIdle(now time.Time) int {
	al.mu.Lock()
	defer al.mu.Unlock()

	evicted := 0
	for user, b := range al.buckets {
		if now.Sub(b.lastSeen) > al.staleAge {
			delete(al.buckets, user)
			evicted++
		}
	}
	return evicted
}
