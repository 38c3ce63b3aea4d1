// Package harness runs conformance scenarios against a real registry.
//
// Each scenario gets a fresh registry, a deterministic sequence clock
// standing in for the host counter, and sequential event IDs. Steps execute
// the actual operations and validate the returned identifier or error code;
// assertions inspect the final state through the public read surface; the
// emitted event trail is captured by a memory sink for golden comparison.
package harness

import (
	"context"
	"fmt"

	"github.com/avialog/partregistry/internal/registry"
	"github.com/avialog/partregistry/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool

	// Errors lists expectation and assertion failures. Empty when Pass.
	Errors []string

	// Trace is the captured event trail in commit order.
	Trace []registry.Event

	// Registry is the final registry, for callers that want to inspect
	// state beyond the scenario's own assertions.
	Registry *registry.Registry
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes a scenario and returns its result. A non-nil error means the
// scenario could not be set up at all; expectation failures are reported in
// the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	clock := testutil.NewSeqClock()
	sink := registry.NewMemorySink()

	opts := []registry.Option{
		registry.WithSink(sink),
		registry.WithIDGenerator(testutil.NewSeqIDs()),
	}
	if scenario.Ceiling != 0 {
		opts = append(opts, registry.WithCeiling(registry.PartID(scenario.Ceiling)))
	}

	admin := registry.Identity(scenario.Admin)
	reg, err := registry.New(admin, opts...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	// Genesis writer grants, performed by the administrator.
	for _, w := range scenario.Writers {
		call := registry.Call{Caller: admin, Seq: clock.Next()}
		if err := reg.SetAuthorizedWriter(ctx, call, registry.Identity(w), true); err != nil {
			return nil, fmt.Errorf("scenario %s: grant writer %s: %w", scenario.Name, w, err)
		}
	}

	result := &Result{Pass: true, Registry: reg}

	for i, step := range scenario.Steps {
		runStep(ctx, reg, clock, i, step, result)
	}

	for i, a := range scenario.Assertions {
		if err := assertFinalState(reg, a); err != nil {
			result.AddError("assertions[%d]: %v", i, err)
		}
	}

	result.Trace = sink.Events()
	return result, nil
}

func runStep(ctx context.Context, reg *registry.Registry, clock *testutil.SeqClock, idx int, step Step, result *Result) {
	call := registry.Call{
		Caller: registry.Identity(step.Caller),
		Seq:    clock.Next(),
	}

	var (
		opErr    error
		mintedID registry.PartID
	)

	switch step.Op {
	case "mint":
		mintedID, opErr = reg.Mint(ctx, call, registry.Identity(step.To), registry.MintRequest{
			Serial:        deref(step.Serial),
			Manufacturer:  deref(step.Manufacturer),
			Specification: blob(step.Specification),
			Status:        registry.Status(deref(step.Status)),
		})

	case "update":
		var u registry.Update
		if step.Serial != nil {
			u.Serial = registry.Set(*step.Serial)
		}
		if step.Manufacturer != nil {
			u.Manufacturer = registry.Set(*step.Manufacturer)
		}
		if step.Specification != nil {
			u.Specification = registry.Set([]byte(*step.Specification))
		}
		if step.Status != nil {
			u.Status = registry.Set(registry.Status(*step.Status))
		}
		u.Notes = []byte(step.Notes)
		opErr = reg.UpdateMetadata(ctx, call, registry.PartID(step.Part), u)

	case "burn":
		opErr = reg.Burn(ctx, call, registry.PartID(step.Part))

	case "transfer_admin":
		opErr = reg.TransferAdministration(ctx, call, registry.Identity(step.NewAdmin))

	case "set_paused":
		_, opErr = reg.SetPaused(ctx, call, step.Paused)

	case "set_writer":
		opErr = reg.SetAuthorizedWriter(ctx, call, registry.Identity(step.Writer), step.Authorized)
	}

	if step.ExpectError != "" {
		if opErr == nil {
			result.AddError("steps[%d] (%s): expected error %s, got success", idx, step.Op, step.ExpectError)
			return
		}
		if got := registry.CodeOf(opErr); got != registry.Code(step.ExpectError) {
			result.AddError("steps[%d] (%s): expected error %s, got %s: %v", idx, step.Op, step.ExpectError, got, opErr)
		}
		return
	}

	if opErr != nil {
		result.AddError("steps[%d] (%s): unexpected error: %v", idx, step.Op, opErr)
		return
	}
	if step.Op == "mint" && step.ExpectID != 0 && mintedID != registry.PartID(step.ExpectID) {
		result.AddError("steps[%d] (mint): expected identifier %d, got %d", idx, step.ExpectID, mintedID)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func blob(s *string) []byte {
	if s == nil || *s == "" {
		return nil
	}
	return []byte(*s)
}
