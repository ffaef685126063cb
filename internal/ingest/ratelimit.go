package ingest

import (
	"sync"
	"time"
)

// Default submission budget: 10 submissions per rolling hour per user.
const (
	DefaultRateLimit  = 10
	DefaultRateWindow = time.Hour
)

// SlidingWindowGate counts submissions per user over a rolling window. It is
// an explicit injected store rather than per-session state, so every entry
// point shares one budget per user.
type SlidingWindowGate struct {
	Limit  int
	Window time.Duration

	mu      sync.Mutex
	entries map[string][]time.Time
	now     func() time.Time
}

// NewSlidingWindowGate builds a gate with the given budget. Non-positive
// arguments fall back to the defaults.
func NewSlidingWindowGate(limit int, window time.Duration) *SlidingWindowGate {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &SlidingWindowGate{
		Limit:   limit,
		Window:  window,
		entries: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether userID may submit now and, if so, records the
// attempt.
func (g *SlidingWindowGate) Allow(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-g.Window)

	kept := g.entries[userID][:0]
	for _, ts := range g.entries[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= g.Limit {
		g.entries[userID] = kept
		return false
	}

	g.entries[userID] = append(kept, now)
	return true
}
