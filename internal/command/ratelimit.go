// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Rate limiting defaults.
const (
	DefaultBurstCapacity   = 5
	DefaultSustainedRate   = 1.0 // tokens per second
	DefaultCleanupInterval = 5 * time.Minute
	DefaultIdleAge         = time.Hour
)

// RateLimiterConfig configures the rate limiter. Zero fields take defaults.
type RateLimiterConfig struct {
	BurstCapacity   int
	SustainedRate   float64
	CleanupInterval time.Duration
	IdleAge         time.Duration
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter is a per-actor token bucket. Island commands move players and
// paste structures, so each actor gets a small burst and a slow refill.
//
// A background goroutine drops idle actors. Call Close to stop it.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[ulid.ULID]*bucket
	burst   float64
	rate    float64
	idleAge time.Duration
	now     func() time.Time
	gauge   prometheus.Gauge

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRateLimiter starts a rate limiter. A non-nil reg receives a gauge of
// tracked actors.
func NewRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	if cfg.BurstCapacity <= 0 {
		cfg.BurstCapacity = DefaultBurstCapacity
	}
	if cfg.SustainedRate <= 0 {
		cfg.SustainedRate = DefaultSustainedRate
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.IdleAge <= 0 {
		cfg.IdleAge = DefaultIdleAge
	}

	rl := &RateLimiter{
		buckets: make(map[ulid.ULID]*bucket),
		burst:   float64(cfg.BurstCapacity),
		rate:    cfg.SustainedRate,
		idleAge: cfg.IdleAge,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if reg != nil {
		rl.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skyblock_command_ratelimiter_actors",
			Help: "Number of actors tracked by the command rate limiter",
		})
		reg.MustRegister(rl.gauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

// Allow consumes a token for actor. When none is available it returns false
// and the milliseconds until the next token.
func (rl *RateLimiter) Allow(actor ulid.ULID) (allowed bool, cooldownMs int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[actor]
	if !ok {
		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[actor] = b
	}

	b.tokens = min(rl.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	return false, int64((1 - b.tokens) / rl.rate * 1000)
}

// Len returns the number of tracked actors.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Cleanup forgets actors idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-maxAge)
	for actor, b := range rl.buckets {
		if b.lastSeen.Before(threshold) {
			delete(rl.buckets, actor)
		}
	}
	if rl.gauge != nil {
		rl.gauge.Set(float64(len(rl.buckets)))
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.Cleanup(rl.idleAge)
		}
	}
}

// Close stops the cleanup goroutine and waits for it to exit.
func (rl *RateLimiter) Close() {
	close(rl.stop)
	rl.wg.Wait()
}
