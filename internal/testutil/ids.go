package testutil

import (
	"fmt"
	"sync"
)

// SeqIDs is an unbounded deterministic event-ID generator producing
// "ev-0001", "ev-0002", ... Implements registry.IDGenerator. Unlike
// registry.NewFixedIDGenerator it never exhausts, which suits scenario
// runs where the event count is not known up front.
type SeqIDs struct {
	mu sync.Mutex
	n  int
}

// NewSeqIDs creates a generator starting at "ev-0001".
func NewSeqIDs() *SeqIDs {
	return &SeqIDs{}
}

// NewID returns the next sequential ID.
func (g *SeqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ev-%04d", g.n)
}
