package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarios_GoldenTraces runs every scenario under testdata/scenarios
// and compares its event trail against the golden trace. Regenerate with
// `go test ./internal/harness -update` after an intentional trace change.
func TestScenarios_GoldenTraces(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}
