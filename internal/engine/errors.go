package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
)

// RuntimeError represents an error detected while evaluating a graph that
// is not a naming error. Naming errors surface as *dimname.NameError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// OpID identifies the op being evaluated.
	OpID string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownInput indicates an op input names nothing evaluated so far.
	ErrCodeUnknownInput RuntimeErrorCode = "UNKNOWN_INPUT"

	// ErrCodeInputFailed indicates an op input is the result of a failed op.
	ErrCodeInputFailed RuntimeErrorCode = "INPUT_FAILED"

	// ErrCodeShapeMismatch indicates binary operand shapes do not broadcast.
	ErrCodeShapeMismatch RuntimeErrorCode = "SHAPE_MISMATCH"

	// ErrCodeInvalidOp indicates an op the engine cannot evaluate.
	ErrCodeInvalidOp RuntimeErrorCode = "INVALID_OP"

	// ErrCodeQuotaExceeded indicates the graph has more ops than allowed.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" && e.OpID != "" {
		return fmt.Sprintf("%s: %s (run=%s, op=%s)", e.Code, e.Message, e.RunID, e.OpID)
	}
	if e.OpID != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.OpID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	return false
}

// NewQuotaError creates a RuntimeError for a graph over the op limit.
func NewQuotaError(graph string, ops, maxOps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("graph %q has %d ops, limit is %d", graph, ops, maxOps),
	}
}

// classify returns the code and message to record for a failed op.
func classify(err error) (code, message string) {
	var ne *dimname.NameError
	if errors.As(err, &ne) {
		return string(ne.Code), ne.Error()
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return string(re.Code), re.Message
	}
	return string(ErrCodeInvalidOp), err.Error()
}
