// Package harness runs end-to-end scenarios against the record service.
//
// A scenario seeds a fresh store, drives app.Service operations in order
// and asserts on the trace of what happened, the final store contents and
// the spreadsheet the flow last wrote.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	clock_step: 1ms
//	setup:
//	  - id: AX-001
//	    contract: C1
//	    tax_id: T1
//	    local_time: "2024-01-01 10:00"
//	flow:
//	  - op: capture
//	    args: { contract: C1, tax_id: T1 }
//	  - op: export
//	    expect:
//	      outcome: ok
//	      result: { path: regenerate, rows: 2 }
//	assertions:
//	  - type: store_count
//	    count: 2
//	  - type: final_state
//	    where: { id: AX-001 }
//	    expect: { verified: true }
//
// A step without an expect clause must succeed. Errors are recorded by
// code: seal and sheet errors keep their own code, the rest map to the
// Outcome* constants.
//
// # Assertion Types
//
//   - trace_contains: an op appears in the trace with matching args
//   - trace_order: ops appear in the given order
//   - trace_count: an op appears exactly N times
//   - store_count: the store holds exactly N records
//   - final_state: exactly one record matches where, and its fields match expect
//   - master_rows: the last written spreadsheet has N data rows
//
// # Deterministic Testing
//
// Every scenario starts its clock at testutil.Epoch, renders local times in
// UTC and uses a fixed synchronizer run id, so identical scenarios produce
// identical traces for golden file comparison.
package harness
