package engine

import "sync/atomic"

// Clock is a monotonic logical clock mirroring the ledger's sequence
// numbering. Every appended fact advances the clock by one; on startup it
// resumes from the ledger's last assigned seq.
//
// The ledger stays authoritative for sequence numbers. The clock lets the
// engine detect divergence between the seq it expected and the seq the
// ledger actually assigned.
//
// Thread-safety: safe for concurrent use, though the single-writer design
// means only one goroutine advances it.
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock resuming from a known sequence position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the clock position without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
