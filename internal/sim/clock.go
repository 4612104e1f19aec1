package sim

import "sync"

// Clock is the simulator's monotonic logical clock. Transaction
// ordinals drive digest derivation, so determinism here is what keeps
// object IDs reproducible across runs.
type Clock struct {
	mu  sync.Mutex
	seq uint64
	ns  uint64
}

// NewClock creates a clock at sequence 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments and returns the next transaction ordinal. The first
// call returns 1.
func (c *Clock) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the ordinal without incrementing.
func (c *Clock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// AdvanceNS moves simulated time forward.
func (c *Clock) AdvanceNS(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ns += d
}

// NowNS returns simulated time in nanoseconds.
func (c *Clock) NowNS() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ns
}
