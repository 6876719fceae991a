// Package engine evaluates compiled tensor graphs, inferring the dimension
// names of every intermediate result.
//
// The engine never touches tensor data. Each op is checked and named by
// the rules in namedinference, and its outcome (shape and names, or an
// error code) is recorded as an ir.OpRecord.
//
// EVALUATION:
//
// Ops run in the order they appear in the graph; compiler.Schedule puts
// them into dependency order first. Evaluation is single-threaded and
// deterministic:
//   - Every record is stamped with a seq from a per-run Clock, starting at 1
//   - A failing op does not stop the run; ops that consume its result fail
//     with INPUT_FAILED
//   - Cancelling the context stops the run between ops
//
// Binary ops go through a namedinference.BinaryOpPolicy (ByPosition by
// default), so a different broadcasting policy can be swapped in with
// WithPolicy.
//
// When a store is attached with WithStore, each finished run and its
// records are persisted in one transaction.
package engine
