package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
	"github.com/roach88/namedtensor/internal/namedinference"
	"github.com/roach88/namedtensor/internal/store"
	"github.com/roach88/namedtensor/internal/tensor"
)

// DefaultMaxOps is the default maximum number of ops per graph.
const DefaultMaxOps = 10000

// Engine evaluates graphs. It holds no per-run state, so one Engine can
// evaluate many graphs, though not concurrently when a store is attached.
type Engine struct {
	store  *store.Store
	policy namedinference.BinaryOpPolicy
	runIDs RunIDGenerator
	logger *slog.Logger
	maxOps int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithStore persists every finished run to s.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithPolicy sets the broadcasting policy for binary ops.
//
// Default: namedinference.ByPosition
func WithPolicy(p namedinference.BinaryOpPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithRunIDs sets the run ID generator.
//
// Default: UUIDv7Generator
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMaxOps sets the maximum number of ops a graph may have.
//
// Default: 10000 ops (DefaultMaxOps)
func WithMaxOps(n int) Option {
	return func(e *Engine) {
		e.maxOps = n
	}
}

// New creates an Engine. Options can be passed to configure it.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy: namedinference.ByPosition{},
		runIDs: UUIDv7Generator{},
		logger: slog.Default(),
		maxOps: DefaultMaxOps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run is the outcome of evaluating one graph.
type Run struct {
	Info    ir.RunInfo
	Records []ir.OpRecord

	tensors map[string]*tensor.Tensor
}

// Record returns the record for the given op.
func (r *Run) Record(opID string) (ir.OpRecord, bool) {
	for _, rec := range r.Records {
		if rec.OpID == opID {
			return rec, true
		}
	}
	return ir.OpRecord{}, false
}

// Tensor returns the tensor bound to name: a declared input or the result
// of a successful op.
func (r *Run) Tensor(name string) (*tensor.Tensor, bool) {
	t, ok := r.tensors[name]
	return t, ok
}

// Failed returns the records of ops that produced an error, in seq order.
func (r *Run) Failed() []ir.OpRecord {
	var out []ir.OpRecord
	for _, rec := range r.Records {
		if rec.Failed() {
			out = append(out, rec)
		}
	}
	return out
}

// Evaluate runs every op of g in order and records the outcome.
//
// An op that fails is recorded with its error code and evaluation goes on.
// Evaluate itself returns an error only when the graph cannot be evaluated
// at all (bad declarations, quota exceeded), when ctx is cancelled, or when
// the attached store fails.
func (e *Engine) Evaluate(ctx context.Context, g *ir.Graph) (*Run, error) {
	if len(g.Ops) > e.maxOps {
		return nil, NewQuotaError(g.Name, len(g.Ops), e.maxOps)
	}

	hash, err := ir.GraphHash(*g)
	if err != nil {
		return nil, fmt.Errorf("hash graph %s: %w", g.Name, err)
	}

	run := &Run{
		Info: ir.RunInfo{
			ID:            e.runIDs.Generate(),
			Graph:         g.Name,
			GraphHash:     hash,
			Policy:        fmt.Sprint(e.policy),
			EngineVersion: ir.EngineVersion,
			OpCount:       len(g.Ops),
		},
		tensors: make(map[string]*tensor.Tensor, len(g.Tensors)+len(g.Ops)),
	}
	logger := e.logger.With("run", run.Info.ID, "graph", g.Name)
	logger.Info("run starting", "ops", len(g.Ops), "policy", run.Info.Policy)

	for _, decl := range g.Tensors {
		t, err := declare(decl)
		if err != nil {
			return nil, fmt.Errorf("declare tensor %s: %w", decl.Name, err)
		}
		run.tensors[decl.Name] = t
	}

	clock := NewClock()
	failed := make(map[string]bool)

	for _, op := range g.Ops {
		if err := ctx.Err(); err != nil {
			logger.Info("run stopping: context cancelled", "evaluated", len(run.Records))
			return nil, err
		}

		rec := ir.OpRecord{
			RunID:  run.Info.ID,
			Seq:    clock.Next(),
			OpID:   op.ID,
			Kind:   op.Kind,
			Inputs: op.Inputs,
		}

		result, err := e.evalOp(run.tensors, failed, op)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				re.RunID, re.OpID = run.Info.ID, op.ID
			}
			rec.ErrorCode, rec.ErrorMessage = classify(err)
			failed[op.ID] = true
			run.Info.FailedCount++
			logger.Warn("op failed",
				"op", op.ID,
				"kind", op.Kind,
				"seq", rec.Seq,
				"code", rec.ErrorCode,
				"error", rec.ErrorMessage,
			)
		} else {
			rec.Shape = result.Shape()
			rec.Names = result.Names()
			run.tensors[op.ID] = result
			logger.Debug("op evaluated",
				"op", op.ID,
				"kind", op.Kind,
				"seq", rec.Seq,
				"names", rec.Names.String(),
			)
		}
		run.Records = append(run.Records, rec)
	}

	if e.store != nil {
		if err := e.store.WriteRun(ctx, run.Info, run.Records); err != nil {
			return nil, fmt.Errorf("write run %s: %w", run.Info.ID, err)
		}
	}

	logger.Info("run finished",
		"ops", run.Info.OpCount,
		"failed", run.Info.FailedCount,
	)
	return run, nil
}

// declare builds an input tensor from its declaration.
func declare(decl ir.TensorDecl) (*tensor.Tensor, error) {
	if decl.Names == nil {
		return tensor.New(decl.Shape...)
	}
	names, err := dimname.ParseList(decl.Names...)
	if err != nil {
		return nil, err
	}
	return tensor.NewNamed(decl.Shape, names)
}

// evalOp evaluates one op against the tensors bound so far.
func (e *Engine) evalOp(env map[string]*tensor.Tensor, failed map[string]bool, op ir.OpDecl) (*tensor.Tensor, error) {
	if len(op.Inputs) != op.Kind.Arity() {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidOp,
			Message: fmt.Sprintf("%q op with %d input(s)", op.Kind, len(op.Inputs)),
		}
	}

	inputs := make([]*tensor.Tensor, len(op.Inputs))
	for i, name := range op.Inputs {
		if failed[name] {
			return nil, &RuntimeError{
				Code:    ErrCodeInputFailed,
				Message: fmt.Sprintf("input %q is the result of a failed op", name),
			}
		}
		t, ok := env[name]
		if !ok {
			return nil, &RuntimeError{
				Code:    ErrCodeUnknownInput,
				Message: fmt.Sprintf("input %q has not been evaluated", name),
			}
		}
		inputs[i] = t
	}

	switch op.Kind {
	case ir.OpUnary:
		return evalUnary(inputs[0])
	case ir.OpBinary:
		return e.evalBinary(inputs[0], inputs[1])
	case ir.OpReduce:
		return evalReduce(inputs[0], op)
	case ir.OpRename:
		return evalRename(inputs[0], op)
	default:
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidOp,
			Message: fmt.Sprintf("unknown op kind %q", op.Kind),
		}
	}
}
