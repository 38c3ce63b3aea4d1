package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avialog/partregistry/internal/registry"
)

func strPtr(s string) *string { return &s }

func TestRun_Lifecycle(t *testing.T) {
	scenario := &Scenario{
		Name:        "lifecycle",
		Description: "mint, update, burn",
		Admin:       "op-admin",
		Writers:     []string{"workshop", "alice"},
		Steps: []Step{
			{
				Op: "mint", Caller: "workshop", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectID: 1,
			},
			{
				Op: "update", Caller: "workshop", Part: 1,
				Status: strPtr("installed"), Notes: "fitted",
			},
			{Op: "burn", Caller: "alice", Part: 1},
		},
		Assertions: []Assertion{
			{Type: AssertAbsent, Part: 1},
			{Type: AssertLastID, Value: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	// Two genesis grants plus three step events.
	require.Len(t, result.Trace, 5)
	assert.Equal(t, registry.EventWriterSet, result.Trace[0].Name)
	assert.Equal(t, registry.EventPartMinted, result.Trace[2].Name)
	assert.Equal(t, "ev-0003", result.Trace[2].ID)
	assert.Equal(t, int64(3), result.Trace[2].Seq)
	assert.Equal(t, registry.EventPartBurned, result.Trace[4].Name)

	assert.False(t, result.Registry.Exists(1))
	assert.Equal(t, registry.PartID(1), result.Registry.LastID())
}

func TestRun_ExpectedErrorSatisfied(t *testing.T) {
	scenario := &Scenario{
		Name:        "unauthorized-probe",
		Description: "stranger cannot mint",
		Admin:       "op-admin",
		Steps: []Step{
			{
				Op: "mint", Caller: "stranger", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectError: "UNAUTHORIZED",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Trace, "failed operations emit no events")
}

func TestRun_ExpectedErrorCodeMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-code",
		Description: "expects the wrong error code",
		Admin:       "op-admin",
		Steps: []Step{
			{
				Op: "mint", Caller: "stranger", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectError: "NOT_FOUND",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error NOT_FOUND, got UNAUTHORIZED")
}

func TestRun_ExpectedErrorButStepSucceeds(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected-success",
		Description: "admin mint expected to fail",
		Admin:       "op-admin",
		Steps: []Step{
			{
				Op: "mint", Caller: "op-admin", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectError: "UNAUTHORIZED",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error UNAUTHORIZED, got success")
}

func TestRun_ExpectIDMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-id",
		Description: "first mint cannot yield identifier 2",
		Admin:       "op-admin",
		Steps: []Step{
			{
				Op: "mint", Caller: "op-admin", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectID: 2,
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected identifier 2, got 1")
}

func TestRun_CeilingApplied(t *testing.T) {
	scenario := &Scenario{
		Name:        "tiny-ceiling",
		Description: "ceiling of one",
		Admin:       "op-admin",
		Ceiling:     1,
		Steps: []Step{
			{
				Op: "mint", Caller: "op-admin", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectID: 1,
			},
			{
				Op: "mint", Caller: "op-admin", To: "alice",
				Serial: strPtr("SN-2"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
				ExpectError: "CAPACITY_EXCEEDED",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_NullAdminFailsSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "null-admin",
		Description: "registry cannot be constructed",
		Admin:       "",
		Steps:       []Step{{Op: "set_paused", Caller: "x", Paused: true}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
}

func TestRun_FailedAssertionReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad-assertion",
		Description: "asserts the wrong custodian",
		Admin:       "op-admin",
		Steps: []Step{
			{
				Op: "mint", Caller: "op-admin", To: "alice",
				Serial: strPtr("SN-1"), Manufacturer: strPtr("Acme"), Status: strPtr("new"),
			},
		},
		Assertions: []Assertion{
			{Type: AssertOwner, Part: 1, Identity: "bob"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], `owned by "alice"`)
}
