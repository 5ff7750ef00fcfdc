package harness

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/sheet"
	"github.com/roach88/actas/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == "completion" {
				fmt.Fprintf(&buf, "  [%d] %s -> %s %v\n", i+1, event.Op, event.Outcome, event.Result)
			}
		}
	}
	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation matching
// the specified op and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == "invocation" && event.Op == assertion.Op && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("op %s with args %v", assertion.Op, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the ops appear as a subsequence of the
// invocations. Intervening ops are allowed and an op may repeat.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(assertion.Ops) {
			break
		}
		if event.Type == "invocation" && event.Op == assertion.Ops[next] {
			next++
		}
	}
	if next == len(assertion.Ops) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
		Actual:   fmt.Sprintf("%s not found after %v", assertion.Ops[next], assertion.Ops[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == "invocation" && event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertStoreCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	n, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("store_count: %w", err)
	}
	if n != assertion.Count {
		return &AssertionError{
			Type:     AssertStoreCount,
			Expected: fmt.Sprintf("%d stored actas", assertion.Count),
			Actual:   fmt.Sprintf("%d stored actas", n),
		}
	}
	return nil
}

// assertFinalState finds exactly one stored record matching Where and
// checks Expect against its projection using subset semantics.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	records, err := st.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}

	var matched []map[string]interface{}
	for _, rec := range records {
		p := project(rec)
		if matchArgs(p, assertion.Where) {
			matched = append(matched, p)
		}
	}

	whereDesc := formatWhereClause(assertion.Where)
	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("acta where %s", whereDesc),
			Actual:   "acta not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one acta where %s", whereDesc),
			Actual:   fmt.Sprintf("%d actas matched (assertion is ambiguous)", len(matched)),
		}
	}

	actual := matched[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expected := assertion.Expect[key]
		got, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %v", key, sortedKeys(actual)),
			}
		}
		if !valuesEqual(got, expected) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, got, got),
			}
		}
	}
	return nil
}

// assertMasterRows reads the last spreadsheet written by the flow and
// checks its data row count and, if given, its id column.
func assertMasterRows(path string, assertion Assertion) error {
	if path == "" {
		return &AssertionError{
			Type:     AssertMasterRows,
			Expected: fmt.Sprintf("%d master rows", assertion.Count),
			Actual:   "no spreadsheet was written",
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("master_rows: %w", err)
	}
	rows, err := sheet.ReadRows(data)
	if err != nil {
		return fmt.Errorf("master_rows: %w", err)
	}

	var ids []string
	if len(rows) > 1 {
		for _, row := range rows[1:] {
			if len(row) > 0 {
				ids = append(ids, row[0])
			}
		}
	}

	if len(ids) != assertion.Count {
		return &AssertionError{
			Type:     AssertMasterRows,
			Expected: fmt.Sprintf("%d master rows", assertion.Count),
			Actual:   fmt.Sprintf("%d master rows %v", len(ids), ids),
		}
	}
	if assertion.IDs != nil && !reflect.DeepEqual(ids, assertion.IDs) {
		return &AssertionError{
			Type:     AssertMasterRows,
			Expected: fmt.Sprintf("ids %v", assertion.IDs),
			Actual:   fmt.Sprintf("ids %v", ids),
		}
	}
	return nil
}

// project flattens the fields scenarios assert on.
func project(rec acta.Record) map[string]interface{} {
	return map[string]interface{}{
		"id":           rec.ID,
		"contract":     rec.Client.ContractNumber,
		"tax_id":       rec.Client.TaxID,
		"local_time":   rec.Visit.LocalTime,
		"observations": rec.Observations,
		"sealed":       rec.Sealed(),
		"verified":     seal.Verify(rec) == nil,
		"pdf":          rec.Artifacts.PDFFilename,
	}
}

// formatWhereClause creates a human-readable description of match conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual interface{}, expected map[string]interface{}) bool {
	if len(expected) == 0 {
		return true
	}

	actualMap, ok := actual.(map[string]interface{})
	if !ok {
		return false
	}

	for key, expectedVal := range expected {
		actualVal, exists := actualMap[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values for equality. Integers compare by value
// whatever their width, since YAML decodes them as int.
func valuesEqual(actual, expected interface{}) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	if a, ok := asInt64(actual); ok {
		if e, ok := asInt64(expected); ok {
			return a == e
		}
	}
	return reflect.DeepEqual(actual, expected)
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context

	// Artifact is the last spreadsheet the flow wrote, if any.
	Artifact string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides store access for state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertStoreCount, AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires store context", i, assertion.Type)
			} else if assertion.Type == AssertStoreCount {
				err = assertStoreCount(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		case AssertMasterRows:
			var path string
			if actx != nil {
				path = actx.Artifact
			}
			err = assertMasterRows(path, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
