// Package testutil provides deterministic fixtures shared by tests:
// a controllable wall clock and correlation-id sequences.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a controllable wall clock for tests. Time only moves
// when a test calls Advance or Set, so timestamps, certificate windows,
// and ledger events come out identical on every run.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned at the given instant.
func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{now: at}
}

// Now returns the current instant. Pass the method value as a
// time.Now replacement: ledger.WithNow(clock.Now).
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and returns the new instant.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set pins the clock to a new instant.
func (c *FixedClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// Tick returns a time source that advances the clock by step on every
// call, for logs that need strictly increasing timestamps.
func (c *FixedClock) Tick(step time.Duration) func() time.Time {
	return func() time.Time {
		return c.Advance(step)
	}
}
