package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/actas/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Canonical serializes the snapshot as canonical JSON.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	trace := make(ir.Array, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.Object{
			"type": ir.String(event.Type),
			"seq":  ir.Int(event.Seq),
			"op":   ir.String(event.Op),
		}
		if event.Args != nil {
			v, err := toValue(event.Args)
			if err != nil {
				return nil, fmt.Errorf("trace[%d].args: %w", i, err)
			}
			obj["args"] = v
		}
		if event.Outcome != "" {
			obj["outcome"] = ir.String(event.Outcome)
		}
		if event.Result != nil {
			v, err := toValue(event.Result)
			if err != nil {
				return nil, fmt.Errorf("trace[%d].result: %w", i, err)
			}
			obj["result"] = v
		}
		trace[i] = obj
	}

	return ir.MarshalCanonical(ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"trace":         trace,
	})
}

// toValue converts YAML-decoded args and operation results to ir values.
func toValue(val interface{}) (ir.Value, error) {
	switch v := val.(type) {
	case nil:
		return ir.Null{}, nil
	case string:
		return ir.String(v), nil
	case bool:
		return ir.Bool(v), nil
	case int:
		return ir.Int(v), nil
	case int64:
		return ir.Int(v), nil
	case uint64:
		return ir.Int(int64(v)), nil
	case float64:
		return ir.NewDecimal(v), nil
	case []interface{}:
		arr := make(ir.Array, len(v))
		for i, elem := range v {
			e, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case []string:
		arr := make(ir.Array, len(v))
		for i, elem := range v {
			arr[i] = ir.String(elem)
		}
		return arr, nil
	case map[string]interface{}:
		obj := make(ir.Object, len(v))
		for k, elem := range v {
			e, err := toValue(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", val)
}

// RunWithGolden executes a scenario, fails t on any expectation or
// assertion error, and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
