package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different outbound targets
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a target
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Default rate limiter names
const (
	LimiterSearch = "search"
	LimiterPages  = "pages"
	LimiterAssets = "assets"
)

// Default rates
const (
	defaultSearchPerHour  = 100
	defaultPagesPerSecond = 2
)

// New creates a limiter with the configured search and page rates.
// Non-positive values fall back to the defaults.
func New(searchPerHour, pagesPerSecond int) *MultiLimiter {
	if searchPerHour <= 0 {
		searchPerHour = defaultSearchPerHour
	}
	if pagesPerSecond <= 0 {
		pagesPerSecond = defaultPagesPerSecond
	}

	m := NewMultiLimiter()

	// Search provider quota is hourly, burst 5
	m.AddLimiter(LimiterSearch, float64(searchPerHour)/3600, 5)

	// Page fetches: be polite to result hosts
	m.AddLimiter(LimiterPages, float64(pagesPerSecond), 5)

	// Asset downloads: 4 per second, burst 10
	m.AddLimiter(LimiterAssets, 4, 10)

	return m
}

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	return New(0, 0)
}
