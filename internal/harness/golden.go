package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/avialog/partregistry/internal/canonical"
	"github.com/avialog/partregistry/internal/registry"
)

// TraceSnapshot captures a scenario's event trail for golden comparison.
// Serialized as canonical JSON so byte comparison is meaningful.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []registry.Event
}

// toCanonicalMap converts the snapshot to the map form the canonical
// encoder accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		payload := make(map[string]any, len(ev.Payload))
		for k, v := range ev.Payload {
			payload[k] = v
		}
		trace[i] = map[string]any{
			"id":      ev.ID,
			"name":    ev.Name,
			"part":    uint64(ev.Part),
			"actor":   string(ev.Actor),
			"seq":     ev.Seq,
			"payload": payload,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
}

// RunWithGolden executes a scenario and compares its event trail against
// testdata/golden/{scenario.Name}.golden. Regenerate goldens with:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run; trace mismatches and
// expectation failures fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}
	traceJSON, err := canonical.Marshal(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)
	return nil
}
