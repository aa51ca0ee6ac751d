package ledger

import "sync/atomic"

// idClock issues monotonically increasing event ids.
//
// Each call to Next returns a unique, strictly increasing value. The
// clock resumes from the durable log's last assigned id on open, so ids
// are never reused across process restarts.
type idClock struct {
	seq atomic.Int64
}

// newIDClock creates a clock starting at 0; the first id issued is 1.
func newIDClock() *idClock {
	return &idClock{}
}

// newIDClockAt creates a clock resuming after a known last id.
func newIDClockAt(last int64) *idClock {
	c := &idClock{}
	c.seq.Store(last)
	return c
}

// Next returns the next event id.
func (c *idClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued id without advancing.
func (c *idClock) Current() int64 {
	return c.seq.Load()
}
