package spy

import "sync/atomic"

// Clock stamps recorded calls with strictly increasing sequence numbers.
type Clock interface {
	Next() int64
	Current() int64
	Reset()
}

// seqClock is the default Clock. The first call to Next returns start+1.
type seqClock struct {
	seq atomic.Int64
}

func newClockAt(start int64) *seqClock {
	c := &seqClock{}
	c.seq.Store(start)
	return c
}

func (c *seqClock) Next() int64    { return c.seq.Add(1) }
func (c *seqClock) Current() int64 { return c.seq.Load() }
func (c *seqClock) Reset()         { c.seq.Store(0) }
