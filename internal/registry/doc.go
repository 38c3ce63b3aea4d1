// Package registry implements the part registry core: a single-writer
// state machine that assigns sequential identifiers to physical aircraft
// parts, tracks each part's custodian and metadata record, and keeps a
// capped per-part audit history.
//
// ARCHITECTURE:
//
// Single-Writer State:
// All registry state lives in one Registry struct guarded by one RWMutex.
// Every state-changing operation acquires the write lock, runs all of its
// precondition checks, and only then mutates. A failed check returns before
// the first mutation, so rollback is structural: there is never a partial
// write to undo. Reads take the read lock and may run concurrently.
//
// Host-Supplied Inputs:
// The registry performs no authentication and owns no clock. Each mutating
// call carries a Call value holding the authenticated caller identity and
// the host's monotonic sequence number. This keeps the core deterministic
// and lets tests drive it with synthetic identities and sequence numbers.
//
// Event Trail:
// Each committed mutation emits one Event to the configured Sink, in commit
// order, while the write lock is held. Emission is best-effort observability:
// a sink failure is logged and never fails the operation.
//
// Identifier Discipline:
// Identifiers start at 1 and are strictly increasing, never reused, even
// after a burn. Gaps after burns are expected. Exceeding the configured
// ceiling is a hard CapacityExceeded rejection, never a wraparound.
package registry
