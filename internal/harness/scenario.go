package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: genesis state, a sequence
// of registry operations with per-step expectations, and assertions on the
// final state. Scenarios run against a real registry with a deterministic
// sequence clock and deterministic event IDs, so the captured event trail
// is reproducible and suitable for golden comparison.
type Scenario struct {
	// Name uniquely identifies this scenario; also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Admin is the genesis administrator identity.
	Admin string `yaml:"admin"`

	// Writers are whitelisted before the first step runs. Each grant
	// consumes a sequence number and emits a writer_set event.
	Writers []string `yaml:"writers,omitempty"`

	// Ceiling optionally lowers the identifier ceiling, for capacity tests.
	Ceiling uint64 `yaml:"ceiling,omitempty"`

	// Steps is the operation sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final registry state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one registry operation. Op selects which of the remaining fields
// apply; every step names its caller.
type Step struct {
	// Op is one of: mint, update, burn, transfer_admin, set_paused,
	// set_writer.
	Op string `yaml:"op"`

	// Caller is the host-authenticated identity performing the operation.
	Caller string `yaml:"caller"`

	// Mint: recipient identity.
	To string `yaml:"to,omitempty"`

	// Mint and update metadata fields. Pointers distinguish "omitted" from
	// "set to empty" for update steps; mint requires serial, manufacturer,
	// and status. Specification and notes are plain text in scenarios.
	Serial        *string `yaml:"serial,omitempty"`
	Manufacturer  *string `yaml:"manufacturer,omitempty"`
	Specification *string `yaml:"specification,omitempty"`
	Status        *string `yaml:"status,omitempty"`
	Notes         string  `yaml:"notes,omitempty"`

	// Update/burn: target identifier.
	Part uint64 `yaml:"part,omitempty"`

	// transfer_admin: the proposed new administrator.
	NewAdmin string `yaml:"new_admin,omitempty"`

	// set_writer: target identity and the boolean to set.
	Writer     string `yaml:"writer,omitempty"`
	Authorized bool   `yaml:"authorized,omitempty"`

	// set_paused: the flag to set.
	Paused bool `yaml:"paused,omitempty"`

	// ExpectID asserts the identifier returned by a mint.
	ExpectID uint64 `yaml:"expect_id,omitempty"`

	// ExpectError asserts the step fails with this error code (e.g.
	// "UNAUTHORIZED"). Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates final registry state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Part is the target identifier (owner, metadata, history_len, absent).
	Part uint64 `yaml:"part,omitempty"`

	// Identity is the expected custodian (owner).
	Identity string `yaml:"identity,omitempty"`

	// Expect holds expected metadata field values, subset-matched
	// (metadata). Keys: serial, manufacturer, status, notes.
	Expect map[string]string `yaml:"expect,omitempty"`

	// Count is the expected history length (history_len).
	Count int `yaml:"count,omitempty"`

	// Value is the expected counter value (last_id, total_minted).
	Value uint64 `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertOwner       = "owner"
	AssertMetadata    = "metadata"
	AssertHistoryLen  = "history_len"
	AssertAbsent      = "absent"
	AssertLastID      = "last_id"
	AssertTotalMinted = "total_minted"
)

var stepOps = map[string]bool{
	"mint":           true,
	"update":         true,
	"burn":           true,
	"transfer_admin": true,
	"set_paused":     true,
	"set_writer":     true,
}

var assertionTypes = map[string]bool{
	AssertOwner:       true,
	AssertMetadata:    true,
	AssertHistoryLen:  true,
	AssertAbsent:      true,
	AssertLastID:      true,
	AssertTotalMinted: true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected (catches typos like "assertion:" vs "assertions:").
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadDir loads every .yaml/.yml scenario under dir, sorted by file name
// for stable run order.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Admin == "" {
		return fmt.Errorf("admin is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !stepOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Caller == "" {
			return fmt.Errorf("steps[%d]: caller is required", i)
		}
		switch step.Op {
		case "mint":
			if step.ExpectError == "" {
				if step.To == "" {
					return fmt.Errorf("steps[%d]: mint requires to", i)
				}
				if step.Serial == nil || step.Manufacturer == nil || step.Status == nil {
					return fmt.Errorf("steps[%d]: mint requires serial, manufacturer, and status", i)
				}
			}
		case "update", "burn":
			// Part may legitimately be 0 in steps probing the zero-id
			// rejection, so no check here.
		case "transfer_admin":
			if step.NewAdmin == "" && step.ExpectError == "" {
				return fmt.Errorf("steps[%d]: transfer_admin requires new_admin", i)
			}
		case "set_writer":
			if step.Writer == "" && step.ExpectError == "" {
				return fmt.Errorf("steps[%d]: set_writer requires writer", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if !assertionTypes[a.Type] {
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}
