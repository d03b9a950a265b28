// Package ratelimit provides per-client, per-route token bucket rate limiting.
package ratelimit

import (
	"sync"
	"time"
)

type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

// take refills the bucket up to now and consumes one token when available.
// It returns whether a token was consumed, the whole tokens left and when the bucket is full again.
func (tb *tokenBucket) take(now time.Time) (bool, int, time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.lastRefill).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}

	allowed := tb.tokens >= 1
	if allowed {
		tb.tokens--
	}

	reset := now
	if tb.tokens < tb.capacity && tb.refillRate > 0 {
		secs := (tb.capacity - tb.tokens) / tb.refillRate
		reset = now.Add(time.Duration(secs * float64(time.Second)))
	}
	return allowed, int(tb.tokens), reset
}

// Info describes the rate limit state after a request.
// Limit is zero for unlimited requests.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks one token bucket per client, route and method.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	lastAccess map[string]time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter. A nil config uses DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Limiter{
		config:     config,
		now:        time.Now,
		buckets:    make(map[string]*tokenBucket),
		lastAccess: make(map[string]time.Time),
		stop:       make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow consumes a token for clientID on the given route.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	rule := l.config.Match(path, method)
	if rule.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	key := clientID + ":" + method + ":" + path
	bucket := l.bucket(key, rule, now)

	allowed, remaining, reset := bucket.take(now)
	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetTime: reset,
	}
	if !allowed {
		// one token per Window/Limit
		info.RetryAfter = rule.window() / time.Duration(rule.Limit)
	}
	return allowed, info
}

func (l *Limiter) bucket(key string, rule Rule, now time.Time) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastAccess[key] = now
	if b, ok := l.buckets[key]; ok {
		return b
	}

	burst := rule.Burst
	if burst <= 0 {
		burst = rule.Limit
	}
	b := newTokenBucket(burst, float64(rule.Limit)/rule.window().Seconds(), now)
	l.buckets[key] = b
	return b
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle(l.now().Add(-time.Hour))
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops buckets not used since cutoff.
func (l *Limiter) evictIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
