package registry

import (
	"errors"
	"fmt"
)

// Code categorizes registry operation failures. Every failure surfaced by a
// state-changing operation carries exactly one Code, and the first failing
// precondition short-circuits the call with no state change.
type Code string

const (
	// CodeUnauthorized indicates the caller is neither administrator nor
	// whitelisted writer, or is not the custodian for ownership-gated calls.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeNotFound indicates the referenced identifier has no record.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict indicates a creation would collide with an existing
	// identifier. Defensive: sequential allocation makes this unreachable
	// unless the stores have been corrupted.
	CodeConflict Code = "CONFLICT"

	// CodeInvalidInput indicates a malformed argument: empty required text,
	// unknown lifecycle status, zero identifier, or the null identity where
	// a real identity is required.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeCapacityExceeded indicates the next identifier would exceed the
	// configured ceiling.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"

	// CodeAlreadyRetired indicates the target record has no custodian
	// mapping anymore, distinct from NotFound.
	CodeAlreadyRetired Code = "ALREADY_RETIRED"

	// CodePaused indicates the registry is paused and rejecting mutations.
	CodePaused Code = "PAUSED"
)

// Error is the failure type returned by all state-changing operations.
type Error struct {
	// Code identifies the failure category.
	Code Code

	// Op names the operation that failed (e.g. "mint", "burn").
	Op string

	// Part identifies the affected part, when one was referenced.
	Part PartID

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Part != 0 {
		return fmt.Sprintf("%s: %s (op=%s, part=%d)", e.Code, e.Message, e.Op, e.Part)
	}
	return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
}

// CodeOf returns the Code carried by err, or "" if err is not a registry
// Error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool { return CodeOf(err) == CodeUnauthorized }

// IsNotFound reports whether err is a missing-record failure.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsConflict reports whether err is an identifier collision.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// IsInvalidInput reports whether err is a malformed-argument failure.
func IsInvalidInput(err error) bool { return CodeOf(err) == CodeInvalidInput }

// IsCapacityExceeded reports whether err is an identifier-ceiling failure.
func IsCapacityExceeded(err error) bool { return CodeOf(err) == CodeCapacityExceeded }

// IsAlreadyRetired reports whether err targets a retired record.
func IsAlreadyRetired(err error) bool { return CodeOf(err) == CodeAlreadyRetired }

// IsPaused reports whether err was rejected by the pause gate.
func IsPaused(err error) bool { return CodeOf(err) == CodePaused }

func opErr(op string, code Code, part PartID, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Part:    part,
		Message: fmt.Sprintf(format, args...),
	}
}
