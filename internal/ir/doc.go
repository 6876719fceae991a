// Package ir provides the intermediate representation shared by the graph
// compiler, the evaluation engine, the run store and the test harness.
//
// This package contains type definitions and hashing only. It imports
// nothing internal except dimname, so it stays the foundational layer with
// no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere; extents are int64
//   - Names on declarations are plain strings; "*" is the wildcard and a
//     nil slice means the tensor is unnamed
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
