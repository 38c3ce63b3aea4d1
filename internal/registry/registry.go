package registry

import (
	"context"
	"encoding/base64"
	"log/slog"
	"math"
	"sync"

	"github.com/avialog/partregistry/internal/canonical"
	"github.com/avialog/partregistry/internal/schema"
)

// DefaultCeiling is the default maximum valid identifier. High enough to
// never matter in practice while still guarding the allocator against
// overflow; tests lower it with WithCeiling.
const DefaultCeiling PartID = math.MaxInt64

// Call carries the host-supplied trusted inputs for one state-changing
// operation: the authenticated caller and the host's monotonic sequence
// number. The registry trusts both verbatim.
type Call struct {
	Caller Identity
	Seq    int64
}

// Registry is the part registry state machine. See the package
// documentation for the concurrency and atomicity model.
type Registry struct {
	mu sync.RWMutex

	// Authorization state (singleton).
	admin   Identity
	paused  bool
	writers map[Identity]bool

	// Identity + metadata stores. A part exists in owners iff it exists in
	// records; the two are mutated together under the write lock.
	owners  map[PartID]Identity
	records map[PartID]Record
	history map[PartID]*historyRing

	lastID  PartID
	ceiling PartID

	validator *schema.Validator
	sink      Sink
	ids       IDGenerator
	logger    *slog.Logger
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithCeiling sets the maximum valid identifier. Minting past the ceiling
// fails with CapacityExceeded.
func WithCeiling(max PartID) Option {
	return func(r *Registry) { r.ceiling = max }
}

// WithSink sets the event sink. Without one, events are dropped.
func WithSink(s Sink) Option {
	return func(r *Registry) { r.sink = s }
}

// WithIDGenerator sets the event ID generator. Defaults to UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Registry) { r.ids = g }
}

// WithLogger sets the logger used for sink failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New constructs a registry with the given initial administrator, which must
// not be the null identity.
func New(admin Identity, opts ...Option) (*Registry, error) {
	if admin == NullIdentity {
		return nil, opErr("init", CodeInvalidInput, 0, "administrator must not be the null identity")
	}

	validator, err := schema.New()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		admin:     admin,
		writers:   make(map[Identity]bool),
		owners:    make(map[PartID]Identity),
		records:   make(map[PartID]Record),
		history:   make(map[PartID]*historyRing),
		ceiling:   DefaultCeiling,
		validator: validator,
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// isAuthorizedLocked reports whether id may perform general mutations:
// the administrator, or an explicitly whitelisted writer.
func (r *Registry) isAuthorizedLocked(id Identity) bool {
	return id == r.admin || r.writers[id]
}

// emitLocked stamps and delivers an event. Called with the write lock held
// so sinks observe events in commit order. Sink failures are logged, never
// propagated: emission is best-effort observability.
func (r *Registry) emitLocked(ctx context.Context, ev Event) {
	if r.sink == nil {
		return
	}
	ev.ID = r.ids.NewID()
	if err := r.sink.Record(ctx, ev); err != nil {
		r.logger.Warn("event sink failed",
			"event", ev.Name,
			"part", uint64(ev.Part),
			"error", err)
	}
}

// TransferAdministration replaces the administrator. The caller must be the
// current administrator and newAdmin must not be the null identity.
func (r *Registry) TransferAdministration(ctx context.Context, call Call, newAdmin Identity) error {
	const op = "transfer_administration"
	r.mu.Lock()
	defer r.mu.Unlock()

	if call.Caller != r.admin {
		return opErr(op, CodeUnauthorized, 0, "caller %q is not the administrator", call.Caller)
	}
	if newAdmin == NullIdentity {
		return opErr(op, CodeInvalidInput, 0, "new administrator must not be the null identity")
	}

	previous := r.admin
	r.admin = newAdmin

	r.emitLocked(ctx, Event{
		Name:  EventAdminTransferred,
		Actor: call.Caller,
		Seq:   call.Seq,
		Payload: map[string]any{
			"previous": string(previous),
			"new":      string(newAdmin),
		},
	})
	return nil
}

// SetPaused sets the pause flag verbatim and returns the new value. Setting
// the flag to its current value is a no-op that still succeeds. Requires
// administrator privilege; deliberately not pause-gated, otherwise a paused
// registry could never be unpaused.
func (r *Registry) SetPaused(ctx context.Context, call Call, paused bool) (bool, error) {
	const op = "set_paused"
	r.mu.Lock()
	defer r.mu.Unlock()

	if call.Caller != r.admin {
		return r.paused, opErr(op, CodeUnauthorized, 0, "caller %q is not the administrator", call.Caller)
	}

	r.paused = paused

	r.emitLocked(ctx, Event{
		Name:    EventRegistryPaused,
		Actor:   call.Caller,
		Seq:     call.Seq,
		Payload: map[string]any{"paused": paused},
	})
	return r.paused, nil
}

// SetAuthorizedWriter grants or revokes write authorization for writer.
// Requires administrator privilege; writer must not be the null identity.
func (r *Registry) SetAuthorizedWriter(ctx context.Context, call Call, writer Identity, authorized bool) error {
	const op = "set_authorized_writer"
	r.mu.Lock()
	defer r.mu.Unlock()

	if call.Caller != r.admin {
		return opErr(op, CodeUnauthorized, 0, "caller %q is not the administrator", call.Caller)
	}
	if writer == NullIdentity {
		return opErr(op, CodeInvalidInput, 0, "writer must not be the null identity")
	}

	r.writers[writer] = authorized

	r.emitLocked(ctx, Event{
		Name:  EventWriterSet,
		Actor: call.Caller,
		Seq:   call.Seq,
		Payload: map[string]any{
			"writer":     string(writer),
			"authorized": authorized,
		},
	})
	return nil
}

// Mint allocates the next identifier, assigns custodianship of it to
// recipient, and stores the validated metadata record. Notes start empty
// and CreatedSeq is stamped with the call's sequence number.
func (r *Registry) Mint(ctx context.Context, call Call, recipient Identity, req MintRequest) (PartID, error) {
	const op = "mint"
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return 0, opErr(op, CodePaused, 0, "registry is paused")
	}
	if !r.isAuthorizedLocked(call.Caller) {
		return 0, opErr(op, CodeUnauthorized, 0, "caller %q is not an authorized writer", call.Caller)
	}
	if recipient == NullIdentity {
		return 0, opErr(op, CodeInvalidInput, 0, "recipient must not be the null identity")
	}
	if err := r.validator.ValidateNew(req.Serial, req.Manufacturer, len(req.Specification), string(req.Status)); err != nil {
		return 0, opErr(op, CodeInvalidInput, 0, "%v", err)
	}

	next := r.lastID + 1
	if next > r.ceiling {
		return 0, opErr(op, CodeCapacityExceeded, 0, "identifier %d exceeds ceiling %d", next, r.ceiling)
	}
	// Defensive: sequential allocation makes occupancy impossible unless the
	// stores were corrupted, but a collision must never silently overwrite.
	if _, exists := r.owners[next]; exists {
		return 0, opErr(op, CodeConflict, next, "identifier %d is already occupied", next)
	}
	if _, exists := r.records[next]; exists {
		return 0, opErr(op, CodeConflict, next, "identifier %d has an orphaned record", next)
	}

	r.owners[next] = recipient
	r.records[next] = Record{
		Serial:        req.Serial,
		Manufacturer:  req.Manufacturer,
		Specification: cloneBytes(req.Specification),
		CreatedSeq:    call.Seq,
		Status:        req.Status,
	}
	r.lastID = next

	r.emitLocked(ctx, Event{
		Name:  EventPartMinted,
		Part:  next,
		Actor: call.Caller,
		Seq:   call.Seq,
		Payload: map[string]any{
			"to":            string(recipient),
			"serial":        req.Serial,
			"manufacturer":  req.Manufacturer,
			"specification": base64.StdEncoding.EncodeToString(req.Specification),
			"status":        string(req.Status),
		},
	})
	return next, nil
}

// UpdateMetadata replaces the supplied fields of an existing record and
// appends a history entry describing the change. Unset fields keep their
// stored value; Notes is always replaced with the supplied value, possibly
// back to empty. CreatedSeq is never touched.
func (r *Registry) UpdateMetadata(ctx context.Context, call Call, id PartID, u Update) error {
	const op = "update_metadata"
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return opErr(op, CodePaused, id, "registry is paused")
	}
	if !r.isAuthorizedLocked(call.Caller) {
		return opErr(op, CodeUnauthorized, id, "caller %q is not an authorized writer", call.Caller)
	}
	if id == 0 {
		return opErr(op, CodeInvalidInput, 0, "identifier must be greater than zero")
	}
	rec, ok := r.records[id]
	if !ok {
		return opErr(op, CodeNotFound, id, "no metadata record for identifier %d", id)
	}
	if _, ok := r.owners[id]; !ok {
		// Distinct from NotFound: a record whose custodian mapping is gone
		// is treated as already retired.
		return opErr(op, CodeAlreadyRetired, id, "identifier %d has no custodian", id)
	}
	// Creation enforces completeness; update enforces only well-formedness
	// of what was supplied.
	if status, set := u.Status.Get(); set {
		if err := r.validator.ValidateStatus(string(status)); err != nil {
			return opErr(op, CodeInvalidInput, id, "%v", err)
		}
	}
	if spec, set := u.Specification.Get(); set {
		if err := r.validator.ValidateSpec(len(spec)); err != nil {
			return opErr(op, CodeInvalidInput, id, "%v", err)
		}
	}
	if err := r.validator.ValidateNotes(len(u.Notes)); err != nil {
		return opErr(op, CodeInvalidInput, id, "%v", err)
	}

	change := map[string]any{
		// Notes is unconditionally replaced, so it always appears in the
		// change descriptor.
		"notes": base64.StdEncoding.EncodeToString(u.Notes),
	}
	if serial, set := u.Serial.Get(); set {
		rec.Serial = serial
		change["serial"] = serial
	}
	if manufacturer, set := u.Manufacturer.Get(); set {
		rec.Manufacturer = manufacturer
		change["manufacturer"] = manufacturer
	}
	if spec, set := u.Specification.Get(); set {
		rec.Specification = cloneBytes(spec)
		change["specification"] = base64.StdEncoding.EncodeToString(spec)
	}
	if status, set := u.Status.Get(); set {
		rec.Status = status
		change["status"] = string(status)
	}
	rec.Notes = cloneBytes(u.Notes)
	r.records[id] = rec

	descriptor := canonical.MustMarshal(change)
	ring := r.history[id]
	if ring == nil {
		ring = &historyRing{}
		r.history[id] = ring
	}
	ring.append(HistoryEntry{
		Updater: call.Caller,
		Seq:     call.Seq,
		Change:  descriptor,
	})

	r.emitLocked(ctx, Event{
		Name:    EventPartUpdated,
		Part:    id,
		Actor:   call.Caller,
		Seq:     call.Seq,
		Payload: change,
	})
	return nil
}

// Burn retires a part: custodian mapping, metadata record, and full history
// are deleted together. Only the current custodian may burn; the check is
// stricter than general authorization and does not accept administrator
// override.
func (r *Registry) Burn(ctx context.Context, call Call, id PartID) error {
	const op = "burn"
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return opErr(op, CodePaused, id, "registry is paused")
	}
	if !r.isAuthorizedLocked(call.Caller) {
		return opErr(op, CodeUnauthorized, id, "caller %q is not an authorized writer", call.Caller)
	}
	if id == 0 {
		return opErr(op, CodeInvalidInput, 0, "identifier must be greater than zero")
	}
	owner, ok := r.owners[id]
	if !ok {
		return opErr(op, CodeNotFound, id, "no custodian for identifier %d", id)
	}
	if call.Caller != owner {
		return opErr(op, CodeUnauthorized, id, "caller %q is not the custodian of identifier %d", call.Caller, id)
	}

	delete(r.owners, id)
	delete(r.records, id)
	delete(r.history, id)

	r.emitLocked(ctx, Event{
		Name:    EventPartBurned,
		Part:    id,
		Actor:   call.Caller,
		Seq:     call.Seq,
		Payload: map[string]any{"owner": string(owner)},
	})
	return nil
}

// Owner returns the current custodian of id, or false if id has none.
func (r *Registry) Owner(id PartID) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[id]
	return owner, ok
}

// Metadata returns a copy of the record for id, or false if none exists.
func (r *Registry) Metadata(id PartID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// History returns the audit entries for id oldest-first, or nil if none.
func (r *Registry) History(id PartID) []HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ring := r.history[id]
	if ring == nil {
		return nil
	}
	return ring.snapshot()
}

// LastID returns the last assigned identifier, or 0 before the first mint.
func (r *Registry) LastID() PartID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID
}

// Administrator returns the current administrator identity.
func (r *Registry) Administrator() Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin
}

// Paused returns the pause flag.
func (r *Registry) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// IsAuthorizedWriter reports whether id is explicitly whitelisted. The
// administrator is authorized implicitly and is not reported here unless
// also whitelisted.
func (r *Registry) IsAuthorizedWriter(id Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writers[id]
}

// Exists reports whether id names a live part.
func (r *Registry) Exists(id PartID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[id]
	return ok
}

// TotalMinted returns the number of mints performed, defined as the last
// assigned identifier. After burns this over-reports the live record count;
// that is the documented behavior, not a bug.
func (r *Registry) TotalMinted() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(r.lastID)
}
