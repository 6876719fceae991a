package ir

import (
	"github.com/roach88/namedtensor/internal/dimname"
)

// OpKind names the inference rule an operation applies.
type OpKind string

const (
	// OpUnary is a shape-preserving elementwise operation. Names pass
	// through unchanged.
	OpUnary OpKind = "unary"

	// OpBinary is a broadcasting elementwise operation on two inputs.
	// Names are unified from the right.
	OpBinary OpKind = "binary"

	// OpReduce removes (or with keepdim, collapses) the listed
	// dimensions. Names of removed dimensions are dropped.
	OpReduce OpKind = "reduce"

	// OpRename replaces or clears the names of its input.
	OpRename OpKind = "rename"
)

// Arity returns the number of inputs an operation of this kind takes, or
// zero for an unknown kind.
func (k OpKind) Arity() int {
	switch k {
	case OpUnary, OpReduce, OpRename:
		return 1
	case OpBinary:
		return 2
	default:
		return 0
	}
}

// IsValid reports whether k is a known operation kind.
func (k OpKind) IsValid() bool {
	return k.Arity() > 0
}

// Graph is a compiled tensor graph: declared input tensors plus an ordered
// list of operations. Operations may only reference tensors declared
// earlier, either as inputs or as the results of earlier operations.
type Graph struct {
	Name    string       `json:"name"`
	Tensors []TensorDecl `json:"tensors"`
	Ops     []OpDecl     `json:"ops"`
}

// TensorDecl declares an input tensor.
type TensorDecl struct {
	Name  string   `json:"name"`
	Shape []int64  `json:"shape"`
	Names []string `json:"names"` // nil = unnamed
}

// OpDecl declares one operation. The result is bound under ID.
type OpDecl struct {
	ID      string   `json:"id"`
	Kind    OpKind   `json:"kind"`
	Inputs  []string `json:"inputs"`
	Dims    []string `json:"dims,omitempty"`    // reduce by name
	Axes    []int    `json:"axes,omitempty"`    // reduce by position
	Keepdim bool     `json:"keepdim,omitempty"` // reduce only
	Names   []string `json:"names,omitempty"`   // rename only; nil clears
}

// Op returns the operation with the given ID.
func (g *Graph) Op(id string) (OpDecl, bool) {
	for _, op := range g.Ops {
		if op.ID == id {
			return op, true
		}
	}
	return OpDecl{}, false
}

// Tensor returns the declared input tensor with the given name.
func (g *Graph) Tensor(name string) (TensorDecl, bool) {
	for _, t := range g.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return TensorDecl{}, false
}

// RunInfo describes one evaluation of a graph.
type RunInfo struct {
	ID            string `json:"id"`
	Graph         string `json:"graph"`
	GraphHash     string `json:"graph_hash"`
	Policy        string `json:"policy"`
	EngineVersion string `json:"engine_version"`
	OpCount       int    `json:"op_count"`
	FailedCount   int    `json:"failed_count"`
}

// OpRecord is the outcome of evaluating one operation. Exactly one of
// (Shape, Names) or (ErrorCode, ErrorMessage) is meaningful.
type OpRecord struct {
	RunID        string           `json:"run_id"`
	Seq          int64            `json:"seq"`
	OpID         string           `json:"op_id"`
	Kind         OpKind           `json:"kind"`
	Inputs       []string         `json:"inputs"`
	Shape        []int64          `json:"shape,omitempty"`
	Names        dimname.Optional `json:"names"`
	ErrorCode    string           `json:"error_code,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// Failed reports whether the operation produced an error.
func (r OpRecord) Failed() bool {
	return r.ErrorCode != ""
}
