package compiler

import (
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrGraphNoOps       = "E200" // at least one op required
	ErrDuplicateBinding = "E201" // tensor or op id bound twice
	ErrUnknownOpKind    = "E202" // kind is not unary/binary/reduce/rename
	ErrWrongArity       = "E203" // input count does not match kind
	ErrUnknownInput     = "E204" // input references nothing
	ErrInvalidNames     = "E205" // names fail rank/duplicate checks
	ErrNegativeExtent   = "E206" // shape has a negative extent
	ErrReduceDims       = "E207" // reduce needs exactly one of dims/axes
	ErrMisplacedField   = "E208" // field not allowed for this kind
	ErrDependencyCycle  = "E209" // ops depend on each other
)

// ValidationError represents a graph validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled graph for semantic errors.
// Returns all errors found (does not fail-fast).
//
// Inputs may refer to declared tensors or to any op in the graph; ops
// need not be declared in evaluation order. Use Schedule to order them.
func Validate(g *ir.Graph) []ValidationError {
	var errs []ValidationError

	if len(g.Ops) == 0 {
		errs = append(errs, ValidationError{
			Field:   "ops",
			Message: "at least one op is required",
			Code:    ErrGraphNoOps,
		})
	}

	bound := make(map[string]bool)

	for _, t := range g.Tensors {
		field := "tensors." + t.Name
		if bound[t.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate binding: %q", t.Name),
				Code:    ErrDuplicateBinding,
			})
		}
		bound[t.Name] = true

		for d, n := range t.Shape {
			if n < 0 {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.shape[%d]", field, d),
					Message: fmt.Sprintf("negative extent %d", n),
					Code:    ErrNegativeExtent,
				})
			}
		}

		if t.Names != nil {
			if err := validateNames(t.Names, len(t.Shape)); err != nil {
				errs = append(errs, ValidationError{
					Field:   field + ".names",
					Message: err.Error(),
					Code:    ErrInvalidNames,
				})
			}
		}
	}

	for i, op := range g.Ops {
		if bound[op.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("ops[%d].id", i),
				Message: fmt.Sprintf("duplicate binding: %q", op.ID),
				Code:    ErrDuplicateBinding,
			})
		}
		bound[op.ID] = true
	}

	for i, op := range g.Ops {
		errs = append(errs, validateOp(op, i, bound)...)
	}

	if err := detectCycles(g); err != nil {
		errs = append(errs, ValidationError{
			Field:   "ops",
			Message: err.Error(),
			Code:    ErrDependencyCycle,
		})
	}

	return errs
}

func validateOp(op ir.OpDecl, i int, bound map[string]bool) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("ops[%d](%s)", i, op.ID)

	if !op.Kind.IsValid() {
		return append(errs, ValidationError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown op kind %q", op.Kind),
			Code:    ErrUnknownOpKind,
		})
	}

	if len(op.Inputs) != op.Kind.Arity() {
		errs = append(errs, ValidationError{
			Field:   field + ".inputs",
			Message: fmt.Sprintf("%s op takes %d input(s), got %d", op.Kind, op.Kind.Arity(), len(op.Inputs)),
			Code:    ErrWrongArity,
		})
	}

	for j, in := range op.Inputs {
		if !bound[in] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.inputs[%d]", field, j),
				Message: fmt.Sprintf("unknown input %q", in),
				Code:    ErrUnknownInput,
			})
		}
	}

	if op.Kind == ir.OpReduce {
		if (op.Dims == nil) == (op.Axes == nil) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "reduce needs exactly one of dims or axes",
				Code:    ErrReduceDims,
			})
		}
		for j, d := range op.Dims {
			if d == dimname.WildcardSymbol {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.dims[%d]", field, j),
					Message: "cannot reduce over the wildcard",
					Code:    ErrInvalidNames,
				})
			}
		}
	} else {
		if op.Dims != nil || op.Axes != nil || op.Keepdim {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("dims, axes and keepdim are only valid on reduce, not %s", op.Kind),
				Code:    ErrMisplacedField,
			})
		}
	}

	if op.Kind == ir.OpRename {
		if op.Names != nil {
			if err := validateNames(op.Names, -1); err != nil {
				errs = append(errs, ValidationError{
					Field:   field + ".names",
					Message: err.Error(),
					Code:    ErrInvalidNames,
				})
			}
		}
	} else if op.Names != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".names",
			Message: fmt.Sprintf("names is only valid on rename, not %s", op.Kind),
			Code:    ErrMisplacedField,
		})
	}

	return errs
}

// validateNames checks a declared name list. A negative rank skips the
// rank check; the rank of a rename target is only known at evaluation.
func validateNames(names []string, rank int) error {
	list, err := dimname.ParseList(names...)
	if err != nil {
		return err
	}
	if rank < 0 {
		rank = len(list)
	}
	return dimname.Validate(list, rank)
}
