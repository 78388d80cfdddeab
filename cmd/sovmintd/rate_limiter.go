// rate_limiter.go - Per-minter rate limiting for mint submissions
package main

import (
	"sync"
	"time"
)

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	mu           sync.Mutex
	tokens       int
	maxTokens    int
	refillRate   int
	lastRefill   time.Time
	refillPeriod time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxTokens int, refillRate int, refillPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:       maxTokens,
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		lastRefill:   time.Now(),
		refillPeriod: refillPeriod,
	}
}

// Allow checks if a request is allowed and consumes a token if so
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Refill tokens based on time elapsed
	now := time.Now()
	timeElapsed := now.Sub(rl.lastRefill)
	refillCount := int(timeElapsed / rl.refillPeriod)

	if refillCount > 0 {
		rl.tokens += refillCount * rl.refillRate
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	return false
}

// Tokens returns the current number of available tokens
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens
}

// MinterRateLimiter manages rate limiting per minting institution
type MinterRateLimiter struct {
	limiters     map[string]*RateLimiter
	mu           sync.RWMutex
	maxTokens    int
	refillRate   int
	refillPeriod time.Duration
}

// NewMinterRateLimiter creates a new per-minter rate limiter
func NewMinterRateLimiter(maxTokens int, refillRate int, refillPeriod time.Duration) *MinterRateLimiter {
	return &MinterRateLimiter{
		limiters:     make(map[string]*RateLimiter),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
	}
}

// Allow checks if a submission from a minter is allowed
func (mrl *MinterRateLimiter) Allow(minter string) bool {
	mrl.mu.Lock()
	limiter, exists := mrl.limiters[minter]
	if !exists {
		limiter = NewRateLimiter(mrl.maxTokens, mrl.refillRate, mrl.refillPeriod)
		mrl.limiters[minter] = limiter
	}
	mrl.mu.Unlock()

	return limiter.Allow()
}

// Tokens returns the current number of available tokens for a minter
func (mrl *MinterRateLimiter) Tokens(minter string) int {
	mrl.mu.RLock()
	limiter, exists := mrl.limiters[minter]
	mrl.mu.RUnlock()

	if !exists {
		return mrl.maxTokens
	}

	return limiter.Tokens()
}
