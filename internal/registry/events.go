package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/avialog/partregistry/internal/canonical"
)

// Event names. Part events carry the affected identifier; registry-level
// events (administration, pause, writer set) carry Part == 0.
const (
	EventPartMinted       = "part.minted"
	EventPartUpdated      = "part.updated"
	EventPartBurned       = "part.burned"
	EventAdminTransferred = "admin.transferred"
	EventRegistryPaused   = "registry.paused"
	EventWriterSet        = "registry.writer_set"
)

// Event is the structured notification emitted after each committed
// mutation, intended for downstream observers (transfer ledger, maintenance
// log, verification systems).
type Event struct {
	// ID uniquely identifies this emission (UUIDv7 in production).
	ID string

	// Name is one of the Event* constants.
	Name string

	// Part is the affected identifier, or 0 for registry-level events.
	Part PartID

	// Actor is the caller that performed the mutation.
	Actor Identity

	// Seq is the host sequence number of the mutating call.
	Seq int64

	// Payload holds event-specific fields. Values are restricted to the
	// canonical-JSON-supported types; binary fields are base64 strings.
	Payload map[string]any
}

// PayloadJSON returns the payload as canonical JSON. Payloads are built by
// the registry from supported types only, so encoding cannot fail.
func (e Event) PayloadJSON() []byte {
	if e.Payload == nil {
		return []byte("{}")
	}
	return canonical.MustMarshal(e.Payload)
}

// Sink receives events synchronously, in commit order, after each committed
// mutation. Implementations must tolerate being called while the registry
// write lock is held; a returned error is logged by the registry and never
// fails the originating operation.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// IDGenerator produces event IDs.
// Implemented by UUIDv7Generator (production) and FixedIDGenerator (tests
// and golden traces).
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so event IDs sort
// by emission time, which helps when merging traces from several registries.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// NewID returns a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns predetermined event IDs in sequence.
//
// Deterministic IDs make event traces reproducible, which golden-file
// comparison depends on.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
// Panics when exhausted, which fails fast on test misconfiguration.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// NewID returns the next predetermined ID.
func (g *FixedIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// MemorySink retains every recorded event in order. Used by tests and the
// conformance harness to capture traces.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements Sink.
func (s *MemorySink) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns the recorded events oldest-first as a fresh slice.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// MultiSink fans each event out to every child sink. The first error is
// returned after all children have been offered the event.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(ctx context.Context, ev Event) error {
	var first error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
