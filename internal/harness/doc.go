// Package harness provides conformance testing for tensor graph specs.
//
// The harness compiles a graph from CUE spec files, evaluates it with the
// real engine against an in-memory store, reads the trace back from the
// store, and checks it against the scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - ../specs/conv.cue
//	graph: conv
//	run_id: run-conv-001
//	expect:
//	  - op: biased
//	    names: ["*", c, h, w]
//	  - op: plain
//	    unnamed: true
//	  - op: bad
//	    error: NAME_MISMATCH
//	assertions:
//	  - type: trace_order
//	    ops: [biased, pooled]
//	  - type: failed_count
//	    count: 1
//
// Spec paths are relative to the scenario file. "*" must be quoted in
// YAML, where a bare * starts an alias.
//
// # Assertion Types
//
//   - trace_order: the listed ops appear in this seq order
//   - failed_count: exactly count ops failed
//
// # Deterministic Testing
//
// The run id comes from the scenario (or defaults to "test-run-default")
// and seq numbers come from the engine's per-run logical clock, so traces
// are identical across runs and can be compared against golden files.
package harness
