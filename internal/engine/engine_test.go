package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
	"github.com/roach88/namedtensor/internal/namedinference"
	"github.com/roach88/namedtensor/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(opts ...Option) *Engine {
	base := []Option{
		WithRunIDs(NewFixedGenerator("run-1", "run-2", "run-3")),
		WithLogger(quietLogger()),
	}
	return New(append(base, opts...)...)
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func convGraph() *ir.Graph {
	return &ir.Graph{
		Name: "conv",
		Tensors: []ir.TensorDecl{
			{Name: "img", Shape: []int64{2, 3, 4, 5}, Names: []string{"*", "c", "h", "w"}},
			{Name: "bias", Shape: []int64{5}, Names: []string{"w"}},
			{Name: "raw", Shape: []int64{4, 5}},
		},
		Ops: []ir.OpDecl{
			{ID: "biased", Kind: ir.OpBinary, Inputs: []string{"img", "bias"}},
			{ID: "act", Kind: ir.OpUnary, Inputs: []string{"biased"}},
			{ID: "pooled", Kind: ir.OpReduce, Inputs: []string{"act"}, Dims: []string{"h"}},
			{ID: "kept", Kind: ir.OpReduce, Inputs: []string{"act"}, Axes: []int{-2}, Keepdim: true},
			{ID: "mixed", Kind: ir.OpBinary, Inputs: []string{"act", "raw"}},
			{ID: "plain", Kind: ir.OpRename, Inputs: []string{"pooled"}},
			{ID: "relabelled", Kind: ir.OpRename, Inputs: []string{"pooled"}, Names: []string{"n", "c", "x"}},
		},
	}
}

func mustRecord(t *testing.T, run *Run, opID string) ir.OpRecord {
	t.Helper()
	rec, ok := run.Record(opID)
	require.True(t, ok, "no record for %s", opID)
	return rec
}

func TestEvaluate_InfersNames(t *testing.T) {
	run, err := newTestEngine().Evaluate(context.Background(), convGraph())
	require.NoError(t, err)
	assert.Empty(t, run.Failed())

	tests := []struct {
		op    string
		shape []int64
		names string
	}{
		{"biased", []int64{2, 3, 4, 5}, "[*, c, h, w]"},
		{"act", []int64{2, 3, 4, 5}, "[*, c, h, w]"},
		{"pooled", []int64{2, 3, 5}, "[*, c, w]"},
		{"kept", []int64{2, 3, 1, 5}, "[*, c, h, w]"},
		{"mixed", []int64{2, 3, 4, 5}, "[*, c, h, w]"},
		{"plain", []int64{2, 3, 5}, "<none>"},
		{"relabelled", []int64{2, 3, 5}, "[n, c, x]"},
	}

	for _, tc := range tests {
		t.Run(tc.op, func(t *testing.T) {
			rec := mustRecord(t, run, tc.op)
			assert.False(t, rec.Failed(), "unexpected error %s: %s", rec.ErrorCode, rec.ErrorMessage)
			assert.Equal(t, tc.shape, rec.Shape)
			assert.Equal(t, tc.names, rec.Names.String())
		})
	}

	// Results are bound for later lookups; inputs are untouched.
	pooled, ok := run.Tensor("pooled")
	require.True(t, ok)
	assert.Equal(t, "[*, c, w]", pooled.Names().String())
	img, ok := run.Tensor("img")
	require.True(t, ok)
	assert.Equal(t, "[*, c, h, w]", img.Names().String())
}

func TestEvaluate_RunInfo(t *testing.T) {
	g := convGraph()
	run, err := newTestEngine().Evaluate(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.Info.ID)
	assert.Equal(t, "conv", run.Info.Graph)
	assert.Equal(t, ir.MustGraphHash(*g), run.Info.GraphHash)
	assert.Equal(t, "by-position", run.Info.Policy)
	assert.Equal(t, ir.EngineVersion, run.Info.EngineVersion)
	assert.Equal(t, len(g.Ops), run.Info.OpCount)
	assert.Equal(t, 0, run.Info.FailedCount)

	for i, rec := range run.Records {
		assert.Equal(t, int64(i+1), rec.Seq, "seq starts at 1 and increments")
		assert.Equal(t, "run-1", rec.RunID)
		assert.Equal(t, g.Ops[i].ID, rec.OpID)
	}
}

func TestEvaluate_SeqRestartsPerRun(t *testing.T) {
	e := newTestEngine()

	first, err := e.Evaluate(context.Background(), convGraph())
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), convGraph())
	require.NoError(t, err)

	assert.Equal(t, "run-2", second.Info.ID)
	assert.Equal(t, first.Records[0].Seq, second.Records[0].Seq)
}

func TestEvaluate_UnnamedFastPath(t *testing.T) {
	g := &ir.Graph{
		Name: "plain",
		Tensors: []ir.TensorDecl{
			{Name: "a", Shape: []int64{2, 3}},
			{Name: "b", Shape: []int64{3}},
		},
		Ops: []ir.OpDecl{{ID: "sum", Kind: ir.OpBinary, Inputs: []string{"a", "b"}}},
	}

	run, err := newTestEngine().Evaluate(context.Background(), g)
	require.NoError(t, err)

	rec := mustRecord(t, run, "sum")
	assert.False(t, rec.Failed())
	assert.False(t, rec.Names.IsPresent(), "both inputs unnamed gives an unnamed result")
	assert.Equal(t, []int64{2, 3}, rec.Shape)
}

func TestEvaluate_OpErrors(t *testing.T) {
	tests := []struct {
		name string
		op   ir.OpDecl
		code string
	}{
		{
			name: "name mismatch",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpBinary, Inputs: []string{"xy", "yx"}},
			code: string(dimname.ErrCodeNameMismatch),
		},
		{
			name: "misaligned name",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpBinary, Inputs: []string{"xw", "wx"}},
			code: string(dimname.ErrCodeMisalignedName),
		},
		{
			name: "shape mismatch",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpBinary, Inputs: []string{"xy", "three"}},
			code: string(ErrCodeShapeMismatch),
		},
		{
			name: "reduce by missing name",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpReduce, Inputs: []string{"xy"}, Dims: []string{"t"}},
			code: string(dimname.ErrCodeNameNotFound),
		},
		{
			name: "reduce by name on unnamed input",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpReduce, Inputs: []string{"three"}, Dims: []string{"x"}},
			code: string(dimname.ErrCodeNameNotFound),
		},
		{
			name: "reduce axis out of range",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpReduce, Inputs: []string{"xy"}, Axes: []int{2}},
			code: string(dimname.ErrCodeDimOutOfRange),
		},
		{
			name: "rename rank mismatch",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpRename, Inputs: []string{"xy"}, Names: []string{"a"}},
			code: string(dimname.ErrCodeRankMismatch),
		},
		{
			name: "rename duplicate",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpRename, Inputs: []string{"xy"}, Names: []string{"a", "a"}},
			code: string(dimname.ErrCodeDuplicateName),
		},
		{
			name: "unknown input",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpUnary, Inputs: []string{"nope"}},
			code: string(ErrCodeUnknownInput),
		},
		{
			name: "wrong arity",
			op:   ir.OpDecl{ID: "bad", Kind: ir.OpUnary, Inputs: []string{"xy", "yx"}},
			code: string(ErrCodeInvalidOp),
		},
		{
			name: "unknown kind",
			op:   ir.OpDecl{ID: "bad", Kind: "matmul", Inputs: []string{}},
			code: string(ErrCodeInvalidOp),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := &ir.Graph{
				Name: "errors",
				Tensors: []ir.TensorDecl{
					{Name: "xy", Shape: []int64{3, 4}, Names: []string{"x", "y"}},
					{Name: "yx", Shape: []int64{3, 4}, Names: []string{"y", "x"}},
					{Name: "xw", Shape: []int64{3, 4}, Names: []string{"x", "*"}},
					{Name: "wx", Shape: []int64{3, 4}, Names: []string{"*", "x"}},
					{Name: "three", Shape: []int64{3}},
				},
				Ops: []ir.OpDecl{tc.op},
			}

			run, err := newTestEngine().Evaluate(context.Background(), g)
			require.NoError(t, err, "op failures are recorded, not returned")

			rec := mustRecord(t, run, "bad")
			assert.True(t, rec.Failed())
			assert.Equal(t, tc.code, rec.ErrorCode)
			assert.NotEmpty(t, rec.ErrorMessage)
			assert.False(t, rec.Names.IsPresent())
			assert.Nil(t, rec.Shape)
			assert.Equal(t, 1, run.Info.FailedCount)

			_, bound := run.Tensor("bad")
			assert.False(t, bound)
		})
	}
}

func TestEvaluate_FailurePropagates(t *testing.T) {
	g := &ir.Graph{
		Name: "cascade",
		Tensors: []ir.TensorDecl{
			{Name: "a", Shape: []int64{3, 3}, Names: []string{"x", "y"}},
			{Name: "b", Shape: []int64{3, 3}, Names: []string{"y", "x"}},
		},
		Ops: []ir.OpDecl{
			{ID: "bad", Kind: ir.OpBinary, Inputs: []string{"a", "b"}},
			{ID: "downstream", Kind: ir.OpUnary, Inputs: []string{"bad"}},
			{ID: "further", Kind: ir.OpUnary, Inputs: []string{"downstream"}},
			{ID: "independent", Kind: ir.OpUnary, Inputs: []string{"a"}},
		},
	}

	run, err := newTestEngine().Evaluate(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, string(dimname.ErrCodeNameMismatch), mustRecord(t, run, "bad").ErrorCode)
	assert.Equal(t, string(ErrCodeInputFailed), mustRecord(t, run, "downstream").ErrorCode)
	assert.Equal(t, string(ErrCodeInputFailed), mustRecord(t, run, "further").ErrorCode)

	independent := mustRecord(t, run, "independent")
	assert.False(t, independent.Failed(), "a failure does not stop the run")
	assert.Equal(t, "[x, y]", independent.Names.String())

	assert.Equal(t, 3, run.Info.FailedCount)
	assert.Len(t, run.Failed(), 3)
}

func TestEvaluate_BadDeclaration(t *testing.T) {
	g := &ir.Graph{
		Name:    "bad",
		Tensors: []ir.TensorDecl{{Name: "x", Shape: []int64{2}, Names: []string{"a", "b"}}},
		Ops:     []ir.OpDecl{{ID: "y", Kind: ir.OpUnary, Inputs: []string{"x"}}},
	}

	_, err := newTestEngine().Evaluate(context.Background(), g)
	require.Error(t, err)
	assert.True(t, dimname.IsCode(err, dimname.ErrCodeRankMismatch))
	assert.Contains(t, err.Error(), "declare tensor x")
}

func TestEvaluate_QuotaExceeded(t *testing.T) {
	_, err := newTestEngine(WithMaxOps(2)).Evaluate(context.Background(), convGraph())
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
}

func TestEvaluate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Evaluate(ctx, convGraph())
	assert.ErrorIs(t, err, context.Canceled)
}

// swapPolicy is a stand-in for a by-name policy: it counts calls and
// attaches names of its own choosing.
type swapPolicy struct {
	calls int
	names dimname.Optional
}

func (p *swapPolicy) UnifyForBinaryOp(lhs, rhs namedinference.Named) (namedinference.Named, namedinference.Named, dimname.Optional, error) {
	p.calls++
	return lhs, rhs, p.names, nil
}

func TestEvaluate_CustomPolicy(t *testing.T) {
	policy := &swapPolicy{names: dimname.Some(dimname.MustList("b", "c", "h", "w"))}

	run, err := newTestEngine(WithPolicy(policy)).Evaluate(context.Background(), convGraph())
	require.NoError(t, err)

	assert.Equal(t, 2, policy.calls, "every binary op goes through the policy")
	assert.Equal(t, "[b, c, h, w]", mustRecord(t, run, "biased").Names.String())
	assert.Equal(t, "[b, c, h, w]", mustRecord(t, run, "act").Names.String(), "unary ops propagate what the policy chose")
	assert.NotEqual(t, "by-position", run.Info.Policy)
}

// wrapped hides the concrete tensor from the engine.
type wrapped struct{ namedinference.Named }

type wrappingPolicy struct{}

func (wrappingPolicy) UnifyForBinaryOp(lhs, rhs namedinference.Named) (namedinference.Named, namedinference.Named, dimname.Optional, error) {
	return wrapped{lhs}, wrapped{rhs}, dimname.None(), nil
}

func TestEvaluate_PolicyReturnsForeignOperands(t *testing.T) {
	run, err := newTestEngine(WithPolicy(wrappingPolicy{})).Evaluate(context.Background(), convGraph())
	require.NoError(t, err)
	assert.Equal(t, string(ErrCodeInvalidOp), mustRecord(t, run, "biased").ErrorCode)
}

func TestEvaluate_PersistsToStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run, err := newTestEngine(WithStore(s)).Evaluate(ctx, convGraph())
	require.NoError(t, err)

	info, err := s.ReadRun(ctx, run.Info.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Info, info)

	records, err := s.ReadRecords(ctx, run.Info.ID)
	require.NoError(t, err)
	require.Len(t, records, len(run.Records))
	for i := range records {
		assert.Equal(t, run.Records[i].OpID, records[i].OpID)
		assert.True(t, run.Records[i].Names.Equal(records[i].Names), "names of %s", records[i].OpID)
		assert.Equal(t, run.Records[i].Shape, records[i].Shape)
	}
}

func TestEvaluate_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	g := &ir.Graph{
		Name: "logged",
		Tensors: []ir.TensorDecl{
			{Name: "a", Shape: []int64{3, 3}, Names: []string{"x", "y"}},
			{Name: "b", Shape: []int64{3, 3}, Names: []string{"y", "x"}},
		},
		Ops: []ir.OpDecl{
			{ID: "ok", Kind: ir.OpUnary, Inputs: []string{"a"}},
			{ID: "bad", Kind: ir.OpBinary, Inputs: []string{"a", "b"}},
		},
	}

	_, err := newTestEngine(WithLogger(logger)).Evaluate(context.Background(), g)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=\"op evaluated\"")
	assert.Contains(t, out, "msg=\"op failed\"")
	assert.Contains(t, out, "code=NAME_MISMATCH")
	assert.Contains(t, out, "run=run-1")
}

func TestRuntimeErrorFormat(t *testing.T) {
	err := &RuntimeError{Code: ErrCodeUnknownInput, Message: "input \"x\" has not been evaluated", RunID: "r", OpID: "y"}
	assert.Equal(t, `UNKNOWN_INPUT: input "x" has not been evaluated (run=r, op=y)`, err.Error())

	err = &RuntimeError{Code: ErrCodeQuotaExceeded, Message: "too many"}
	assert.Equal(t, "QUOTA_EXCEEDED: too many", err.Error())
}
