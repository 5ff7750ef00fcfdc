package harness

// OutcomeOK is the outcome of a step that returned no error.
const OutcomeOK = "ok"

// TraceEvent is one invocation or completion in a scenario trace.
type TraceEvent struct {
	Type    string      `json:"type"` // "invocation" or "completion"
	Op      string      `json:"op,omitempty"`
	Args    interface{} `json:"args,omitempty"`
	Outcome string      `json:"outcome,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Seq     int64       `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace adds an invocation to the trace.
func (r *Result) AddInvocationTrace(op string, args interface{}, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type: "invocation",
		Op:   op,
		Args: args,
		Seq:  seq,
	})
}

// AddCompletionTrace adds a completion to the trace.
func (r *Result) AddCompletionTrace(op, outcome string, result interface{}, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    "completion",
		Op:      op,
		Outcome: outcome,
		Result:  result,
		Seq:     seq,
	})
}
