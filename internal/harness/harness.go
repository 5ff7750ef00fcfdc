package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/app"
	"github.com/roach88/actas/internal/seal"
	"github.com/roach88/actas/internal/sheet"
	"github.com/roach88/actas/internal/store"
	"github.com/roach88/actas/internal/testutil"
)

// Agent is the client environment string sealed into every record a
// scenario captures or seeds.
const Agent = "actas-harness/1.0"

// RunID replaces the synchronizer's UUIDv7 run ids so traces stay stable.
const RunID = "scenario-run"

// Harness is the scenario execution context: a service over a throwaway
// store, driven by a deterministic clock.
type Harness struct {
	svc   *app.Service
	store *store.Store
	clock *testutil.DeterministicClock
	dir   string
	seq   int64

	// master is the registered master path, if any.
	master string
	// artifact is the last spreadsheet an export wrote, master or
	// regenerated copy.
	artifact string
}

type scenarioEnv struct {
	clock *testutil.DeterministicClock
}

func (e scenarioEnv) Now() time.Time { return e.clock.Now() }

func (scenarioEnv) ClientEnvironment() string { return Agent }

// Run executes a scenario and returns the result.
//
// Each scenario runs in its own temporary directory holding the database,
// export directory and any master spreadsheet. The clock starts at
// testutil.Epoch and local times are rendered in UTC.
//
// Execution flow:
// 1. Create a fresh store and service
// 2. Seed setup records
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions
//
// A returned error means the scenario could not be run at all. Failed
// expectations and assertions are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "actas-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "actas.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	step := scenario.ClockStep
	if step == 0 {
		step = time.Second
	}
	clock := testutil.NewClockAt(testutil.Epoch, step)

	h := &Harness{
		store: st,
		clock: clock,
		dir:   dir,
		svc: app.New(st, scenarioEnv{clock: clock}, nil, app.Options{
			Executive:      acta.Executive{Name: "Ana Pérez", Email: "ana.perez@example.com"},
			Location:       time.UTC,
			ExportDir:      filepath.Join(dir, "exports"),
			BackupInterval: time.Hour,
			NoticeWindow:   24 * time.Hour,
			Sheet: sheet.Options{
				NewRunID: func() string { return RunID },
			},
		}),
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	h.executeFlow(ctx, scenario.Flow, result)

	actx := &AssertionContext{
		Store:    st,
		Ctx:      ctx,
		Artifact: h.artifact,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// seed stores the setup records. Sealed seeds go through the same seal as a
// capture, so they verify.
func (h *Harness) seed(ctx context.Context, setup []SeedRecord) error {
	for i, s := range setup {
		rec := testutil.Record(s.ID, s.Contract, s.TaxID, s.LocalTime)
		if s.UTCTime != "" {
			rec.Visit.UTCTime = s.UTCTime
		}
		if !s.Unsealed {
			if err := seal.Apply(&rec, Agent); err != nil {
				return fmt.Errorf("setup[%d]: %w", i, err)
			}
		}
		if err := h.store.Insert(ctx, rec); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	return nil
}

// executeFlow runs every step in order. A step whose outcome or result
// differs from its expect clause fails the scenario, and the flow goes on
// so that one run reports every divergence.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) {
	for i, step := range flow {
		var args interface{}
		if step.Args != nil {
			args = step.Args
		}
		result.AddInvocationTrace(step.Op, args, h.next())

		var out map[string]interface{}
		var err error
		if fn, ok := ops[step.Op]; ok {
			out, err = fn(h, ctx, step.Args)
		} else {
			err = fmt.Errorf("unknown op %q", step.Op)
		}
		outcome := outcomeOf(err)
		var traced interface{}
		if out != nil {
			traced = out
		}
		result.AddCompletionTrace(step.Op, outcome, traced, h.next())

		want := OutcomeOK
		if step.Expect != nil {
			want = step.Expect.Outcome
		}
		if outcome != want {
			msg := fmt.Sprintf("flow[%d] %s: expected outcome %s, got %s", i, step.Op, want, outcome)
			if err != nil {
				msg += fmt.Sprintf(" (%v)", err)
			}
			result.AddError(msg)
			continue
		}
		if step.Expect != nil && !matchArgs(out, step.Expect.Result) {
			result.AddError(fmt.Sprintf("flow[%d] %s: result %v does not match expected %v",
				i, step.Op, out, step.Expect.Result))
		}
	}
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}
