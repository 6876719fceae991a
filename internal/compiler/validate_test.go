package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/namedtensor/internal/ir"
)

func validGraph() *ir.Graph {
	return &ir.Graph{
		Name: "conv",
		Tensors: []ir.TensorDecl{
			{Name: "img", Shape: []int64{2, 3, 4, 5}, Names: []string{"*", "c", "h", "w"}},
			{Name: "bias", Shape: []int64{5}, Names: []string{"w"}},
		},
		Ops: []ir.OpDecl{
			{ID: "biased", Kind: ir.OpBinary, Inputs: []string{"img", "bias"}},
			{ID: "pooled", Kind: ir.OpReduce, Inputs: []string{"biased"}, Dims: []string{"h"}},
			{ID: "plain", Kind: ir.OpRename, Inputs: []string{"pooled"}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidGraph(t *testing.T) {
	assert.Empty(t, Validate(validGraph()))
}

func TestValidateNoOps(t *testing.T) {
	g := validGraph()
	g.Ops = nil
	assert.Equal(t, []string{ErrGraphNoOps}, codes(Validate(g)))
}

func TestValidateDuplicateBinding(t *testing.T) {
	g := validGraph()
	g.Tensors = append(g.Tensors, ir.TensorDecl{Name: "img", Shape: []int64{1}})

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateBinding, errs[0].Code)
	assert.Equal(t, "tensors.img", errs[0].Field)
}

func TestValidateUnknownKind(t *testing.T) {
	g := validGraph()
	g.Ops[0].Kind = "matmul"

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownOpKind, errs[0].Code)
}

func TestValidateArity(t *testing.T) {
	g := validGraph()
	g.Ops[0].Inputs = []string{"img"}

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrWrongArity, errs[0].Code)
	assert.Contains(t, errs[0].Message, "binary op takes 2 input(s), got 1")
}

func TestValidateUnknownInput(t *testing.T) {
	g := validGraph()
	g.Ops[1].Inputs = []string{"nope"}

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownInput, errs[0].Code)
	assert.Equal(t, "ops[1](pooled).inputs[0]", errs[0].Field)
}

func TestValidateTensorNames(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"rank mismatch", []string{"a", "b"}},
		{"duplicate", []string{"w", "c", "c", "h"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := validGraph()
			g.Tensors[0].Names = tc.names

			errs := Validate(g)
			require.Len(t, errs, 1)
			assert.Equal(t, ErrInvalidNames, errs[0].Code)
			assert.Equal(t, "tensors.img.names", errs[0].Field)
		})
	}
}

func TestValidateNegativeExtent(t *testing.T) {
	g := validGraph()
	g.Tensors[1].Shape = []int64{-5}

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNegativeExtent, errs[0].Code)
	assert.Equal(t, "tensors.bias.shape[0]", errs[0].Field)
}

func TestValidateReduceDims(t *testing.T) {
	g := validGraph()
	g.Ops[1].Axes = []int{0}
	assert.Equal(t, []string{ErrReduceDims}, codes(Validate(g)), "both dims and axes")

	g.Ops[1].Dims = nil
	g.Ops[1].Axes = nil
	assert.Equal(t, []string{ErrReduceDims}, codes(Validate(g)), "neither")

	g.Ops[1].Dims = []string{"*"}
	assert.Equal(t, []string{ErrInvalidNames}, codes(Validate(g)), "wildcard")
}

func TestValidateMisplacedFields(t *testing.T) {
	g := validGraph()
	g.Ops[0].Keepdim = true
	g.Ops[1].Names = []string{"a"}

	assert.Equal(t, []string{ErrMisplacedField, ErrMisplacedField}, codes(Validate(g)))
}

func TestValidateRenameNames(t *testing.T) {
	g := validGraph()
	g.Ops[2].Names = []string{"*", "c", "c"}

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidNames, errs[0].Code)
	assert.Contains(t, errs[0].Message, "DUPLICATE_NAME")
}

func TestValidateCycle(t *testing.T) {
	g := validGraph()
	g.Ops[0].Inputs = []string{"plain", "bias"}

	errs := Validate(g)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDependencyCycle, errs[0].Code)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	g := validGraph()
	g.Tensors[1].Shape = []int64{-1}
	g.Ops[0].Kind = "matmul"
	g.Ops[1].Inputs = []string{"nope"}

	assert.Len(t, Validate(g), 3, "validation does not fail fast")
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "ops", Message: "at least one op is required", Code: ErrGraphNoOps}
	assert.Equal(t, "[E200] ops: at least one op is required", e.Error())
}
