package engine

import (
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/ir"
	"github.com/roach88/namedtensor/internal/namedinference"
	"github.com/roach88/namedtensor/internal/tensor"
)

func evalUnary(in *tensor.Tensor) (*tensor.Tensor, error) {
	result, err := tensor.New(in.Shape()...)
	if err != nil {
		return nil, err
	}
	if err := namedinference.PropagateNames(result, in); err != nil {
		return nil, err
	}
	return result, nil
}

// evalBinary checks names before shapes, so a naming error is reported
// even when the shapes would not broadcast either.
func (e *Engine) evalBinary(lhs, rhs *tensor.Tensor) (*tensor.Tensor, error) {
	l, r, names, err := e.policy.UnifyForBinaryOp(lhs, rhs)
	if err != nil {
		return nil, err
	}

	lt, lok := l.(*tensor.Tensor)
	rt, rok := r.(*tensor.Tensor)
	if !lok || !rok {
		return nil, &RuntimeError{
			Code:    ErrCodeInvalidOp,
			Message: fmt.Sprintf("policy %v returned operands of type %T and %T", e.policy, l, r),
		}
	}

	shape, err := tensor.BroadcastShapes(lt.Shape(), rt.Shape())
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeShapeMismatch,
			Message: err.Error(),
		}
	}

	result, err := tensor.New(shape...)
	if err != nil {
		return nil, err
	}
	if err := result.SetNames(names); err != nil {
		return nil, err
	}
	return result, nil
}

func evalReduce(in *tensor.Tensor, op ir.OpDecl) (*tensor.Tensor, error) {
	axes := op.Axes
	if op.Dims != nil {
		names, err := dimname.ParseList(op.Dims...)
		if err != nil {
			return nil, err
		}
		axes, err = namedinference.DimnamesToPositions(in, names)
		if err != nil {
			return nil, err
		}
	}

	shape, err := tensor.ReduceShape(in.Shape(), axes, op.Keepdim)
	if err != nil {
		return nil, &dimname.NameError{
			Code:          dimname.ErrCodeDimOutOfRange,
			Message:       err.Error(),
			Position:      -1,
			OtherPosition: -1,
		}
	}

	result, err := tensor.New(shape...)
	if err != nil {
		return nil, err
	}
	if err := namedinference.PropagateNamesForReduction(result, in, axes, op.Keepdim); err != nil {
		return nil, err
	}
	return result, nil
}

// evalRename copies in and replaces its names. A rename without names
// clears them.
func evalRename(in *tensor.Tensor, op ir.OpDecl) (*tensor.Tensor, error) {
	result := in.Clone()
	if op.Names == nil {
		result.ClearNames()
		return result, nil
	}
	names, err := dimname.ParseList(op.Names...)
	if err != nil {
		return nil, err
	}
	if err := result.SetNames(dimname.Some(names)); err != nil {
		return nil, err
	}
	return result, nil
}
