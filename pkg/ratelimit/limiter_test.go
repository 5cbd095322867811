package ratelimit

import (
	"context"
	"testing"

	"golang.org/x/time/rate"
)

func limitOf(t *testing.T, m *MultiLimiter, name string) rate.Limit {
	t.Helper()
	m.mu.RLock()
	defer m.mu.RUnlock()
	limiter, ok := m.limiters[name]
	if !ok {
		t.Fatalf("limiter %s missing", name)
	}
	return limiter.Limit()
}

func TestNewAppliesConfiguredRates(t *testing.T) {
	m := New(7200, 10)

	if got := limitOf(t, m, LimiterSearch); got != rate.Limit(2) {
		t.Errorf("search limit = %v, want 2/s for 7200/hour", got)
	}
	if got := limitOf(t, m, LimiterPages); got != rate.Limit(10) {
		t.Errorf("pages limit = %v, want 10/s", got)
	}
}

func TestNewFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name           string
		searchPerHour  int
		pagesPerSecond int
	}{
		{"zero values", 0, 0},
		{"negative values", -1, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.searchPerHour, tt.pagesPerSecond)

			if got := limitOf(t, m, LimiterSearch); got != rate.Limit(float64(defaultSearchPerHour)/3600) {
				t.Errorf("search limit = %v", got)
			}
			if got := limitOf(t, m, LimiterPages); got != rate.Limit(defaultPagesPerSecond) {
				t.Errorf("pages limit = %v", got)
			}
			if got := limitOf(t, m, LimiterAssets); got != rate.Limit(4) {
				t.Errorf("assets limit = %v", got)
			}
		})
	}
}

func TestDefaultLimiterMatchesNewWithZeroes(t *testing.T) {
	def, zeroed := NewDefaultLimiter(), New(0, 0)
	for _, name := range []string{LimiterSearch, LimiterPages, LimiterAssets} {
		if limitOf(t, def, name) != limitOf(t, zeroed, name) {
			t.Errorf("limiter %s differs between default and zero-config", name)
		}
	}
}

func TestWaitUnknownLimiter(t *testing.T) {
	m := NewMultiLimiter()
	if err := m.Wait(context.Background(), "nope"); err == nil {
		t.Fatal("Wait on unknown limiter returned nil")
	}
	if m.Allow("nope") {
		t.Fatal("Allow on unknown limiter returned true")
	}
}
