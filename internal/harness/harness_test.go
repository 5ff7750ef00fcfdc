package harness

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/actas/internal/app"
	"github.com/roach88/actas/internal/backup"
	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/sheet"
	"github.com/roach88/actas/internal/store"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario errors:\n%v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_TraceShape(t *testing.T) {
	scenario := &Scenario{
		Name:        "trace_shape",
		Description: "Every step yields an invocation and a completion",
		Flow: []FlowStep{
			{Op: OpCapture, Args: map[string]interface{}{"contract": "C1", "tax_id": "T1"}},
			{Op: OpExport},
		},
		Assertions: []Assertion{{Type: AssertStoreCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "%v", result.Errors)

	require.Len(t, result.Trace, 4)
	assert.Equal(t, TraceEvent{
		Type: "invocation",
		Op:   OpCapture,
		Args: map[string]interface{}{"contract": "C1", "tax_id": "T1"},
		Seq:  1,
	}, result.Trace[0])
	assert.Equal(t, "completion", result.Trace[1].Type)
	assert.Equal(t, OutcomeOK, result.Trace[1].Outcome)
	assert.Equal(t, map[string]interface{}{
		"id":         "AX-20240101150000000",
		"local_time": "2024-01-01 15:00:00",
	}, result.Trace[1].Result)
	assert.Nil(t, result.Trace[2].Args)
	assert.Equal(t, int64(4), result.Trace[3].Seq)
}

func TestRun_UnexpectedOutcomeFailsButContinues(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "A failed step does not stop the flow",
		Flow: []FlowStep{
			{Op: OpVerify, Args: map[string]interface{}{"id": "AX-404"}},
			{Op: OpCapture, Args: map[string]interface{}{"contract": "C1", "tax_id": "T1"}},
		},
		Assertions: []Assertion{{Type: AssertStoreCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[0] verify: expected outcome ok, got NOT_FOUND")
	assert.Len(t, result.Trace, 4)
}

func TestRun_ResultMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "result_mismatch",
		Description: "Subset result mismatch is reported",
		Flow: []FlowStep{
			{Op: OpExport, Expect: &ExpectClause{
				Outcome: OutcomeOK,
				Result:  map[string]interface{}{"path": "incremental"},
			}},
		},
		Assertions: []Assertion{{Type: AssertStoreCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "does not match expected")
}

func TestRun_FailedAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "failed_assertion",
		Description: "Assertions run after the flow",
		Flow:        []FlowStep{{Op: OpClear}},
		Assertions: []Assertion{
			{Type: AssertStoreCount, Count: 1},
			{Type: AssertMasterRows, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "0 stored actas")
	assert.Contains(t, result.Errors[1], "no spreadsheet was written")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/master_fallback.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_FreshStorePerRun(t *testing.T) {
	scenario := &Scenario{
		Name:        "fresh",
		Description: "Seeds do not leak between runs",
		Setup:       []SeedRecord{{ID: "AX-001", Contract: "C1", TaxID: "T1", LocalTime: "2024-01-01 10:00"}},
		Flow:        []FlowStep{{Op: OpVerifyAll}},
		Assertions:  []Assertion{{Type: AssertStoreCount, Count: 1}},
	}

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d: %v", i, result.Errors)
	}
}

func TestRun_BadArgs(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_args",
		Description: "Missing op args surface as ERROR",
		Flow: []FlowStep{
			{Op: OpCapture, Args: map[string]interface{}{"contract": "C1"}, Expect: &ExpectClause{Outcome: OutcomeError}},
			{Op: OpAdvance, Args: map[string]interface{}{"duration": "soon"}, Expect: &ExpectClause{Outcome: OutcomeError}},
			{Op: OpRevokeMaster, Expect: &ExpectClause{Outcome: OutcomeError}},
		},
		Assertions: []Assertion{{Type: AssertStoreCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{&app.SimilarError{Contract: "C1", TaxID: "T1", Existing: []string{"AX-001"}}, OutcomeSimilarExists},
		{fmt.Errorf("insert: %w", store.ErrIDCollision), OutcomeIDCollision},
		{&store.Error{Op: "get", Key: "AX-404", Err: store.ErrNotFound}, OutcomeNotFound},
		{backup.ErrEmptyBackup, OutcomeEmptyBackup},
		{fmt.Errorf("attach: %w", app.ErrNotSealed), OutcomeNotSealed},
		{fmt.Errorf("attach: %w", app.ErrArtifactAttached), OutcomeArtifactAttached},
		{sheet.ErrBusy, OutcomeBusy},
		{&seal.Error{Code: seal.ErrCodeMismatch, Message: "hash"}, "MISMATCH"},
		{&sheet.Error{Code: sheet.ErrCodeWriteFailure, Err: errors.New("disk full")}, "WRITE_FAILURE"},
		{errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeOf(tt.err))
		})
	}
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestResult_AddTrace(t *testing.T) {
	r := NewResult()
	r.AddInvocationTrace(OpExport, nil, 1)
	r.AddCompletionTrace(OpExport, OutcomeOK, map[string]interface{}{"rows": 0}, 2)

	require.Len(t, r.Trace, 2)
	assert.Equal(t, "invocation", r.Trace[0].Type)
	assert.Equal(t, "completion", r.Trace[1].Type)
	assert.Equal(t, OutcomeOK, r.Trace[1].Outcome)
}
