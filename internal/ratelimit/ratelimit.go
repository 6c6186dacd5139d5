// Package ratelimit implements a sliding-window admission gate keyed by
// caller address and endpoint.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults matching the production window.
const (
	DefaultWindow = 10 * time.Second
	DefaultLimit  = 5
)

// sweepEvery bounds how often the full map is scanned for stale keys so the
// store does not grow without bound.
const sweepEvery = time.Minute

// Gate admits at most limit calls per key inside the trailing window. All
// state lives in process memory; admission is advisory and best effort, and
// nothing survives a restart.
type Gate struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string][]time.Time
	lastSweep time.Time
}

// New creates a gate with the given trailing window and call cap. Non-positive
// arguments fall back to the defaults.
func New(window time.Duration, limit int) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Gate{
		window:  window,
		limit:   limit,
		now:     time.Now,
		entries: make(map[string][]time.Time),
	}
}

// Key builds the canonical per-caller, per-endpoint gate key.
func Key(addr, endpoint string) string {
	return addr + ":" + endpoint
}

// Admit records the call and reports whether it is allowed. Timestamps older
// than the window are pruned lazily; denied calls are not recorded.
func (g *Gate) Admit(key string) bool {
	now := g.now()
	cutoff := now.Add(-g.window)

	g.mu.Lock()
	defer g.mu.Unlock()

	if now.Sub(g.lastSweep) >= sweepEvery {
		g.sweepLocked(cutoff)
		g.lastSweep = now
	}

	recent := prune(g.entries[key], cutoff)
	if len(recent) >= g.limit {
		g.entries[key] = recent
		return false
	}
	g.entries[key] = append(recent, now)
	return true
}

// prune drops timestamps at or before cutoff, keeping the remainder in order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// sweepLocked evicts keys whose every timestamp has aged out. Callers hold
// g.mu.
func (g *Gate) sweepLocked(cutoff time.Time) {
	for key, stamps := range g.entries {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(g.entries, key)
		}
	}
}
