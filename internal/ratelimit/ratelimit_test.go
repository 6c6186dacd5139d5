package ratelimit

import (
	"testing"
	"time"
)

// fakeClock drives the gate's notion of now.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestGate(window time.Duration, limit int) (*Gate, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	gate := New(window, limit)
	gate.now = func() time.Time { return clock.now }
	return gate, clock
}

func TestAdmitDeniesOverCap(t *testing.T) {
	gate, _ := newTestGate(10*time.Second, 5)

	for i := 0; i < 5; i++ {
		if !gate.Admit("1.2.3.4:/api/login") {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if gate.Admit("1.2.3.4:/api/login") {
		t.Error("sixth call inside the window should be denied")
	}
}

func TestAdmitKeysAreIndependent(t *testing.T) {
	gate, _ := newTestGate(10*time.Second, 1)

	if !gate.Admit("a:/login") {
		t.Fatal("first key should be admitted")
	}
	if !gate.Admit("b:/login") {
		t.Error("a different key has its own window")
	}
	if !gate.Admit("a:/register") {
		t.Error("a different endpoint has its own window")
	}
}

func TestAdmitRecoversAfterWindow(t *testing.T) {
	gate, clock := newTestGate(10*time.Second, 2)

	gate.Admit("k")
	gate.Admit("k")
	if gate.Admit("k") {
		t.Fatal("cap reached, call should be denied")
	}

	clock.advance(11 * time.Second)
	if !gate.Admit("k") {
		t.Error("calls after the window fully elapsed should be admitted again")
	}
}

func TestAdmitSlidesWindow(t *testing.T) {
	gate, clock := newTestGate(10*time.Second, 2)

	gate.Admit("k")
	clock.advance(6 * time.Second)
	gate.Admit("k")

	// The first stamp is now outside the window, the second is not.
	clock.advance(5 * time.Second)
	if !gate.Admit("k") {
		t.Error("pruning should free a slot once the oldest stamp ages out")
	}
	if gate.Admit("k") {
		t.Error("two stamps remain inside the window, the cap holds")
	}
}

func TestDeniedCallsAreNotRecorded(t *testing.T) {
	gate, clock := newTestGate(10*time.Second, 1)

	gate.Admit("k")
	for i := 0; i < 10; i++ {
		gate.Admit("k")
	}

	// Only the single admitted stamp counts; hammering while denied must
	// not extend the lockout.
	clock.advance(11 * time.Second)
	if !gate.Admit("k") {
		t.Error("denied calls must not extend the window")
	}
}

func TestSweepEvictsStaleKeys(t *testing.T) {
	gate, clock := newTestGate(10*time.Second, 5)

	gate.Admit("stale")
	clock.advance(2 * time.Minute)
	gate.Admit("fresh")

	gate.mu.Lock()
	_, staleExists := gate.entries["stale"]
	_, freshExists := gate.entries["fresh"]
	gate.mu.Unlock()

	if staleExists {
		t.Error("stale key should be evicted by the sweep")
	}
	if !freshExists {
		t.Error("fresh key must survive the sweep")
	}
}

func TestDefaults(t *testing.T) {
	gate := New(0, 0)
	if gate.window != DefaultWindow {
		t.Errorf("window = %v, want %v", gate.window, DefaultWindow)
	}
	if gate.limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", gate.limit, DefaultLimit)
	}
}
