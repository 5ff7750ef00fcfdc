package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines an end-to-end run against a fresh record store.
// Scenarios seed records, drive service operations in order and assert on
// the resulting trace, store and master spreadsheet.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ClockStep is how far the clock advances on every read. Zero keeps
	// the default of one second. A sub-second step lets two captures land
	// in the same local second.
	ClockStep time.Duration `yaml:"clock_step,omitempty"`

	// Setup seeds records directly into the store before the flow. Seeded
	// records do not appear in the trace.
	Setup []SeedRecord `yaml:"setup,omitempty"`

	// Flow contains the operations to run, each with an optional expected
	// outcome.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// store_count, final_state, master_rows.
	Assertions []Assertion `yaml:"assertions"`
}

// SeedRecord is a record stored before the flow runs. Fields not named
// here take the values of testutil.Record.
type SeedRecord struct {
	ID        string `yaml:"id"`
	Contract  string `yaml:"contract"`
	TaxID     string `yaml:"tax_id"`
	LocalTime string `yaml:"local_time"`

	// UTCTime overrides the arrival timestamp used for ordering.
	UTCTime string `yaml:"utc_time,omitempty"`

	// Unsealed stores the record without a seal.
	Unsealed bool `yaml:"unsealed,omitempty"`
}

// FlowStep represents one operation in the flow.
type FlowStep struct {
	// Op is the operation name, one of the Op* constants.
	Op string `yaml:"op"`

	// Args contains the operation arguments.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected outcome.
type ExpectClause struct {
	// Outcome is OutcomeOK or an error code such as "SIMILAR_EXISTS".
	Outcome string `yaml:"outcome"`

	// Result contains expected result field values.
	// This is a subset match - only specified fields are validated.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check op appears in trace with args
	// - "trace_order": Check ops appear in order
	// - "trace_count": Check op appears exactly N times
	// - "store_count": Check the number of stored records
	// - "final_state": Find one record and verify expected fields
	// - "master_rows": Check the data rows of the last written master
	Type string `yaml:"type"`

	// Op is the operation name (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Args are the expected operation arguments (used by trace_contains).
	// Subset match - only specified fields are validated.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Where selects records by field (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number (used by trace_count, store_count,
	// master_rows).
	Count int `yaml:"count,omitempty"`

	// Ops is the expected op order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// IDs is the expected id column of the master, top to bottom (used by
	// master_rows). Optional.
	IDs []string `yaml:"ids,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertStoreCount    = "store_count"
	AssertFinalState    = "final_state"
	AssertMasterRows    = "master_rows"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so that
// a misspelled key fails loudly instead of being ignored.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.ClockStep < 0 {
		return fmt.Errorf("clock_step must be non-negative")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Setup))
	for i, rec := range s.Setup {
		if rec.ID == "" {
			return fmt.Errorf("setup[%d]: id is required", i)
		}
		if seen[rec.ID] {
			return fmt.Errorf("setup[%d]: duplicate id %q", i, rec.ID)
		}
		seen[rec.ID] = true
	}

	for i, step := range s.Flow {
		if step.Op == "" {
			return fmt.Errorf("flow[%d]: op is required", i)
		}
		if !knownOp(step.Op) {
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil && step.Expect.Outcome == "" {
			return fmt.Errorf("flow[%d].expect: outcome is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertStoreCount, AssertMasterRows:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFinalState:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
