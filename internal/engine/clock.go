package engine

import "sync/atomic"

// Clock is a monotonic logical clock for ordering op records.
//
// Every record in a run is stamped with a strictly increasing seq from
// this clock, so a replayed run produces identical ordering. Wall-clock
// time is never recorded.
//
// Clock is safe for concurrent use, although the engine only calls Next
// from the goroutine running Evaluate.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
