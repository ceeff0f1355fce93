// Package ratelimit implements a token-bucket limiter keyed by
// arbitrary strings; the API handlers key on client IP plus endpoint.
package ratelimit

import (
	"sync"
	"time"
)

// pruneThreshold bounds the bucket map; stale entries are dropped
// once the map grows past it.
const pruneThreshold = 10000

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow consumes one token for key if available. New keys start with
// a full bucket of capacity tokens refilling at refillPerSec.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		if len(l.m) >= pruneThreshold {
			l.prune(now)
		}
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// prune drops buckets idle long enough to have refilled completely.
// Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	for k, b := range l.m {
		idle := now.Sub(b.last).Seconds()
		if b.refillRate > 0 && idle*b.refillRate >= b.capacity {
			delete(l.m, k)
		}
	}
}
