// Package testutil provides deterministic stand-ins for the host-supplied
// inputs: a monotonic sequence clock and event-ID fixtures.
package testutil

import "sync"

// SeqClock is a resettable monotonic sequence source. It plays the role of
// the host's sequence counter in tests and in the conformance harness, so
// the same scenario always sees the same sequence numbers.
//
// Thread-safety: all methods are safe for concurrent use.
type SeqClock struct {
	mu  sync.Mutex
	seq int64
}

// NewSeqClock creates a clock starting at 0; the first Next returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next increments and returns the next sequence number.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0 for scenario reuse.
func (c *SeqClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// EventIDs returns n synthetic event IDs ("ev-0001", "ev-0002", ...) for
// registry.NewFixedIDGenerator when a test knows how many events it emits.
func EventIDs(n int) []string {
	gen := NewSeqIDs()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = gen.NewID()
	}
	return ids
}
