package harness

import (
	"fmt"
	"strings"

	"github.com/avialog/partregistry/internal/registry"
)

// AssertionError reports a failed final-state assertion with expected and
// actual values spelled out.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// assertFinalState evaluates one assertion against the final registry.
func assertFinalState(reg *registry.Registry, a Assertion) error {
	id := registry.PartID(a.Part)

	switch a.Type {
	case AssertOwner:
		owner, ok := reg.Owner(id)
		if !ok {
			return &AssertionError{
				Type:     AssertOwner,
				Expected: fmt.Sprintf("part %d owned by %q", a.Part, a.Identity),
				Actual:   "part absent",
			}
		}
		if owner != registry.Identity(a.Identity) {
			return &AssertionError{
				Type:     AssertOwner,
				Expected: fmt.Sprintf("part %d owned by %q", a.Part, a.Identity),
				Actual:   fmt.Sprintf("owned by %q", owner),
			}
		}

	case AssertMetadata:
		rec, ok := reg.Metadata(id)
		if !ok {
			return &AssertionError{
				Type:     AssertMetadata,
				Expected: fmt.Sprintf("part %d present", a.Part),
				Actual:   "part absent",
			}
		}
		// Subset match: only the keys the assertion names are compared.
		got := map[string]string{
			"serial":       rec.Serial,
			"manufacturer": rec.Manufacturer,
			"status":       string(rec.Status),
			"notes":        string(rec.Notes),
		}
		var mismatches []string
		for key, want := range a.Expect {
			actual, known := got[key]
			if !known {
				mismatches = append(mismatches, fmt.Sprintf("%s: unknown field", key))
				continue
			}
			if actual != want {
				mismatches = append(mismatches, fmt.Sprintf("%s: want %q, got %q", key, want, actual))
			}
		}
		if len(mismatches) > 0 {
			return &AssertionError{
				Type:     AssertMetadata,
				Expected: fmt.Sprintf("part %d metadata %v", a.Part, a.Expect),
				Actual:   strings.Join(mismatches, "; "),
			}
		}

	case AssertHistoryLen:
		history := reg.History(id)
		if len(history) != a.Count {
			return &AssertionError{
				Type:     AssertHistoryLen,
				Expected: fmt.Sprintf("part %d history length %d", a.Part, a.Count),
				Actual:   fmt.Sprintf("length %d", len(history)),
			}
		}

	case AssertAbsent:
		if reg.Exists(id) {
			return &AssertionError{
				Type:     AssertAbsent,
				Expected: fmt.Sprintf("part %d absent", a.Part),
				Actual:   "part exists",
			}
		}
		if _, ok := reg.Metadata(id); ok {
			return &AssertionError{
				Type:     AssertAbsent,
				Expected: fmt.Sprintf("part %d metadata absent", a.Part),
				Actual:   "metadata present",
			}
		}
		if history := reg.History(id); len(history) != 0 {
			return &AssertionError{
				Type:     AssertAbsent,
				Expected: fmt.Sprintf("part %d history empty", a.Part),
				Actual:   fmt.Sprintf("history length %d", len(history)),
			}
		}

	case AssertLastID:
		if last := reg.LastID(); last != registry.PartID(a.Value) {
			return &AssertionError{
				Type:     AssertLastID,
				Expected: fmt.Sprintf("last identifier %d", a.Value),
				Actual:   fmt.Sprintf("%d", last),
			}
		}

	case AssertTotalMinted:
		if total := reg.TotalMinted(); total != a.Value {
			return &AssertionError{
				Type:     AssertTotalMinted,
				Expected: fmt.Sprintf("total minted %d", a.Value),
				Actual:   fmt.Sprintf("%d", total),
			}
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
