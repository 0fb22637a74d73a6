package session

import "sync"

// SequenceCounter hands out outbound MsgSeqNum (34) values for one connection.
// Every outbound message draws exactly one value, logon included.
type SequenceCounter struct {
	mu    sync.Mutex
	value uint32
}

// NewSequenceCounter returns a counter whose next Increment yields seed+1.
func NewSequenceCounter(seed uint32) *SequenceCounter {
	return &SequenceCounter{value: seed}
}

// Increment advances the counter and returns the new value.
func (c *SequenceCounter) Increment() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value
}

// Current returns the last value handed out.
func (c *SequenceCounter) Current() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
