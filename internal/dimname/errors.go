package dimname

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes naming errors.
type ErrorCode string

const (
	// ErrCodeRankMismatch indicates a name list whose length differs from the rank.
	ErrCodeRankMismatch ErrorCode = "RANK_MISMATCH"

	// ErrCodeDuplicateName indicates two equal non-wildcard names in one list.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeNameNotFound indicates a lookup name that matches no dimension
	// or an ambiguous one matching several.
	ErrCodeNameNotFound ErrorCode = "NAME_NOT_FOUND"

	// ErrCodeNameMismatch indicates two different names aligned at the same
	// position from the right.
	ErrCodeNameMismatch ErrorCode = "NAME_MISMATCH"

	// ErrCodeMisalignedName indicates a name present in both operands at
	// different offsets from the right.
	ErrCodeMisalignedName ErrorCode = "MISALIGNED_NAME"

	// ErrCodeInvalidName indicates a malformed identifier, or a wildcard used
	// where a real name is required.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"

	// ErrCodeDimOutOfRange indicates a positional index outside [-rank, rank).
	ErrCodeDimOutOfRange ErrorCode = "DIM_OUT_OF_RANGE"
)

// NameError is the failure value of every naming operation.
//
// Fields beyond Code and Message are filled when they apply; positions are
// -1 when unused.
type NameError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the offending name.
	Name Dimname

	// Other is the conflicting name from the other operand.
	Other Dimname

	// Position is the index of Name within Names.
	Position int

	// OtherPosition is the index of Other (or of Name) within OtherNames.
	OtherPosition int

	// Names is the first operand's name list.
	Names List

	// OtherNames is the second operand's name list.
	OtherNames List
}

// Error implements the error interface.
func (e *NameError) Error() string {
	if e.Names != nil && e.OtherNames != nil {
		return fmt.Sprintf("%s: %s (names=%s, other=%s)", e.Code, e.Message, e.Names, e.OtherNames)
	}
	if e.Names != nil {
		return fmt.Sprintf("%s: %s (names=%s)", e.Code, e.Message, e.Names)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the ErrorCode of the first NameError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ne *NameError
	if errors.As(err, &ne) {
		return ne.Code, true
	}
	return "", false
}

// IsCode reports whether err wraps a NameError with the given code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// NewRankMismatchError creates a NameError for a list of the wrong length.
func NewRankMismatchError(names List, rank int) *NameError {
	return &NameError{
		Code:          ErrCodeRankMismatch,
		Message:       fmt.Sprintf("%d names given for an array of rank %d", len(names), rank),
		Position:      -1,
		OtherPosition: -1,
		Names:         names,
	}
}
