// Package namedinference implements name inference for operations on named
// tensors.
//
// It resolves dimension names to positions, unifies the names of two
// operands of a broadcasting binary operation, and propagates names from
// an input to the result of an operation.
//
// # Broadcasting by position
//
// Binary operations broadcast by position, aligned from the right, exactly
// as the numeric kernels do. Names act as a type system over that
// alignment: matching names (or wildcards) unify, different names are an
// error, and a name present in both operands must sit at the same offset
// from the right.
//
// Call sites use the three-part shape
//
//	lhs, rhs, out, err := UnifyNamesForBinaryOp(a, b)
//	// run the kernel on lhs, rhs
//	result.SetNames(out)
//
// so that a BinaryOpPolicy aligning by name (permuting operands before
// the kernel) could be substituted without touching them. Only ByPosition
// is implemented.
//
// # Atomicity
//
// Every function that renames a result computes and validates the full
// name list first and commits it with a single SetNames call. A failed
// call leaves the result's names as they were.
//
// Nothing here logs or holds shared state; errors are *dimname.NameError
// values.
package namedinference
