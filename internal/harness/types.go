package harness

import (
	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
)

// TraceEvent is one op record as read back from the store.
type TraceEvent struct {
	Seq    int64            `json:"seq"`
	Op     string           `json:"op"`
	Kind   ir.OpKind        `json:"kind"`
	Inputs []string         `json:"inputs"`
	Shape  []int64          `json:"shape,omitempty"`
	Names  dimname.Optional `json:"names"`
	Error  string           `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Graph and RunID identify what was evaluated.
	Graph string `json:"graph"`
	RunID string `json:"run_id"`

	// Trace contains every op record in seq order.
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

// AddRecord appends an op record to the trace.
func (r *Result) AddRecord(rec ir.OpRecord) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    rec.Seq,
		Op:     rec.OpID,
		Kind:   rec.Kind,
		Inputs: rec.Inputs,
		Shape:  rec.Shape,
		Names:  rec.Names,
		Error:  rec.ErrorCode,
	})
}

// Event returns the trace event for op.
func (r *Result) Event(op string) (TraceEvent, bool) {
	for _, ev := range r.Trace {
		if ev.Op == op {
			return ev, true
		}
	}
	return TraceEvent{}, false
}
