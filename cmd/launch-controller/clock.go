package main

import "time"

// millisClock is the controller's wrapping millisecond counter, derived from
// the monotonic clock and shifted by offset.
type millisClock struct {
	start  time.Time
	offset uint32
	now    func() time.Time
}

func newMillisClock(offset uint32, now func() time.Time) *millisClock {
	return &millisClock{start: now(), offset: offset, now: now}
}

// Millis returns milliseconds since start plus offset, modulo 2^32.
func (c *millisClock) Millis() uint32 {
	return c.offset + uint32(c.now().Sub(c.start).Milliseconds())
}
