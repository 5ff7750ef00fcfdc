package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/store"
	"github.com/roach88/actas/internal/testutil"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: "invocation", Op: OpCapture, Args: map[string]interface{}{"contract": "C1", "tax_id": "T1"}, Seq: 1},
		{Type: "completion", Op: OpCapture, Outcome: OutcomeOK, Seq: 2},
		{Type: "invocation", Op: OpExport, Seq: 3},
		{Type: "completion", Op: OpExport, Outcome: OutcomeOK, Seq: 4},
		{Type: "invocation", Op: OpCapture, Args: map[string]interface{}{"contract": "C2", "tax_id": "T2"}, Seq: 5},
		{Type: "completion", Op: OpCapture, Outcome: OutcomeOK, Seq: 6},
		{Type: "invocation", Op: OpExport, Seq: 7},
		{Type: "completion", Op: OpExport, Outcome: OutcomeOK, Seq: 8},
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "actas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpCapture, Args: map[string]interface{}{"contract": "C2"}}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpExport}))

	err := assertTraceContains(trace, Assertion{Op: OpCapture, Args: map[string]interface{}{"contract": "C3"}})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Equal(t, "not found in trace", ae.Actual)

	assert.Error(t, assertTraceContains(trace, Assertion{Op: OpBackup}))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpCapture, OpExport}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpCapture, OpExport, OpCapture, OpExport}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpCapture, OpCapture}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{OpExport, OpExport, OpCapture}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture not found after [export export]")

	err = assertTraceOrder(trace, Assertion{Ops: []string{OpCapture, OpBackup}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup not found")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpCapture, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpBackup, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpExport, Count: 1})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "1 occurrences of export", ae.Expected)
	assert.Equal(t, "2 occurrences", ae.Actual)
}

func TestAssertStoreCount(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	require.NoError(t, st.Insert(ctx, testutil.RecordA()))

	assert.NoError(t, assertStoreCount(ctx, st, Assertion{Count: 1}))
	err := assertStoreCount(ctx, st, Assertion{Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 stored actas")
}

func TestAssertFinalState(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	a := testutil.RecordA()
	require.NoError(t, seal.Apply(&a, Agent))
	require.NoError(t, st.Insert(ctx, a))
	b := testutil.RecordB()
	require.NoError(t, st.Insert(ctx, b))

	t.Run("match", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Where:  map[string]interface{}{"id": "AX-001"},
			Expect: map[string]interface{}{"sealed": true, "verified": true, "contract": "C1"},
		})
		assert.NoError(t, err)
	})

	t.Run("unsealed record does not verify", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Where:  map[string]interface{}{"id": "AX-002"},
			Expect: map[string]interface{}{"sealed": false, "verified": false},
		})
		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Where:  map[string]interface{}{"id": "AX-404"},
			Expect: map[string]interface{}{"sealed": true},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acta not found")
	})

	t.Run("ambiguous", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Where:  map[string]interface{}{"contract": "C1"},
			Expect: map[string]interface{}{"sealed": true},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 actas matched")
	})

	t.Run("value mismatch", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Where:  map[string]interface{}{"id": "AX-001"},
			Expect: map[string]interface{}{"pdf": "AX-001.pdf"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "pdf" = AX-001.pdf`)
	})

	t.Run("unknown field", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Where:  map[string]interface{}{"id": "AX-001"},
			Expect: map[string]interface{}{"status": "done"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `field "status" to exist`)
	})
}

func TestAssertMasterRows_NoArtifact(t *testing.T) {
	err := assertMasterRows("", Assertion{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spreadsheet was written")
}

func TestAssertMasterRows_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0644))

	err := assertMasterRows(path, Assertion{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTIFACT_CORRUPT")
}

func TestMatchArgs_SubsetSemantics(t *testing.T) {
	actual := map[string]interface{}{
		"path":    "regenerate",
		"rows":    2,
		"written": true,
		"dropped": []interface{}{"AX-002"},
	}

	tests := []struct {
		name     string
		expected map[string]interface{}
		want     bool
	}{
		{"nil expected", nil, true},
		{"empty expected", map[string]interface{}{}, true},
		{"subset", map[string]interface{}{"rows": 2}, true},
		{"all", map[string]interface{}{"path": "regenerate", "rows": 2, "written": true, "dropped": []interface{}{"AX-002"}}, true},
		{"int64 matches int", map[string]interface{}{"rows": int64(2)}, true},
		{"wrong value", map[string]interface{}{"rows": 3}, false},
		{"missing key", map[string]interface{}{"saved_to": "Actas_Master.xlsx"}, false},
		{"wrong list", map[string]interface{}{"dropped": []interface{}{"AX-001"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchArgs(actual, tt.expected))
		})
	}

	assert.False(t, matchArgs(nil, map[string]interface{}{"rows": 2}))
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(nil, nil))
	assert.False(t, valuesEqual(nil, 1))
	assert.True(t, valuesEqual(1, int64(1)))
	assert.False(t, valuesEqual(1, "1"))
	assert.True(t, valuesEqual(true, true))
	assert.True(t, valuesEqual("ok", "ok"))
}

func TestEvaluateAssertions(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	result := &Result{Trace: sampleTrace()}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: OpCapture, Count: 2},
		{Type: AssertStoreCount, Count: 0},
		{Type: AssertTraceOrder, Ops: []string{OpExport, OpBackup}},
		{Type: "row_count"},
	}, &AssertionContext{Store: st, Ctx: ctx})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_order")
	assert.Contains(t, errs[1], `unknown assertion type "row_count"`)
}

func TestEvaluateAssertions_StoreWithoutContext(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: AssertStoreCount}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires store context")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 occurrences of export",
		Actual:   "2 occurrences",
		Trace:    sampleTrace(),
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 1 occurrences of export")
	assert.Contains(t, msg, "Actual: 2 occurrences")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[2] capture -> ok")
}
