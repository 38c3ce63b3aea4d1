package registry

// Identity names an authenticated principal supplied by the host. The host
// guarantees authenticity; the registry only compares identities for
// equality and against the null sentinel.
type Identity string

// NullIdentity is the reserved sentinel that can never be a custodian,
// administrator, or authorized writer.
const NullIdentity Identity = ""

// PartID names one asset record. Identifiers are assigned sequentially
// starting at 1; zero is never valid.
type PartID uint64

// Status is the closed lifecycle-status set. Stored records always hold a
// member of this set; arbitrary text is rejected at the validation gate.
type Status string

const (
	StatusNew       Status = "new"
	StatusInstalled Status = "installed"
	StatusInUse     Status = "in-use"
	StatusRemoved   Status = "removed"
	StatusScrapped  Status = "scrapped"
)

// Statuses lists the closed set in declaration order.
func Statuses() []Status {
	return []Status{StatusNew, StatusInstalled, StatusInUse, StatusRemoved, StatusScrapped}
}

// Record is the metadata attached to a live part. CreatedSeq is write-once:
// it is stamped at mint time and never touched by updates.
type Record struct {
	Serial        string
	Manufacturer  string
	Specification []byte
	CreatedSeq    int64
	Status        Status
	Notes         []byte
}

func (rec Record) clone() Record {
	out := rec
	out.Specification = cloneBytes(rec.Specification)
	out.Notes = cloneBytes(rec.Notes)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// MintRequest carries the mandatory metadata for a new part. All fields are
// validated in full at mint time; notes always start empty.
type MintRequest struct {
	Serial        string
	Manufacturer  string
	Specification []byte
	Status        Status
}

// Opt is an explicit set/unset wrapper for optional update fields.
//
// A plain pointer or zero value cannot distinguish "leave the field alone"
// from "set it to empty", so updates carry Opt values: the zero Opt means
// unset (keep current value), and Set means replace with Value even when
// Value is the type's zero.
type Opt[T any] struct {
	value T
	set   bool
}

// Set returns an Opt carrying v.
func Set[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Get returns the carried value and whether one was set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was set.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Update describes a metadata update. Unset fields retain the stored value.
// Notes is the exception: it is always replaced with the supplied value,
// possibly back to empty, never defaulted.
type Update struct {
	Serial        Opt[string]
	Manufacturer  Opt[string]
	Specification Opt[[]byte]
	Status        Opt[Status]
	Notes         []byte
}

// HistoryEntry is one audit record of a metadata change. Change holds the
// canonical-JSON descriptor of the fields that changed.
type HistoryEntry struct {
	Updater Identity
	Seq     int64
	Change  []byte
}
