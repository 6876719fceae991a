// Package tensor holds the array metadata that dimension naming works on:
// a shape and optional names. There is no storage and no arithmetic.
package tensor

import (
	"fmt"
	"slices"

	"github.com/roach88/namedtensor/internal/dimname"
)

// Tensor is a shape plus optional dimension names.
//
// Invariant: when names are present, len(names) == Rank() and no two
// non-wildcard names are equal. SetNames replaces names whole or fails
// without effect; SetNamesUnchecked trusts its caller for the second half.
//
// A Tensor is not safe for concurrent renames; concurrent reads are fine.
type Tensor struct {
	shape []int64
	names dimname.Optional
}

// New creates an unnamed tensor. Extents must be non-negative.
func New(shape ...int64) (*Tensor, error) {
	for i, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("tensor: negative extent %d at dimension %d", n, i)
		}
	}
	return &Tensor{shape: slices.Clone(shape)}, nil
}

// NewNamed creates a tensor and attaches names in one step.
func NewNamed(shape []int64, names dimname.List) (*Tensor, error) {
	t, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if err := t.SetNames(dimname.Some(names)); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNamed is like NewNamed with text names, and panics on error.
// Use only in tests.
func MustNamed(shape []int64, names ...string) *Tensor {
	t, err := NewNamed(shape, dimname.MustList(names...))
	if err != nil {
		panic(err)
	}
	return t
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Shape returns a copy of the extents.
func (t *Tensor) Shape() []int64 {
	return slices.Clone(t.shape)
}

// Names returns the attached names, or absent.
func (t *Tensor) Names() dimname.Optional {
	return t.names
}

// IsNamed reports whether names are attached.
func (t *Tensor) IsNamed() bool {
	return t.names.IsPresent()
}

// SetNames validates names against the rank and replaces the metadata.
// Absent clears it. On error the previous names are untouched.
func (t *Tensor) SetNames(names dimname.Optional) error {
	list, ok := names.Get()
	if !ok {
		t.names = dimname.None()
		return nil
	}
	if err := dimname.Validate(list, t.Rank()); err != nil {
		return err
	}
	t.names = dimname.Some(list)
	return nil
}

// SetNamesUnchecked replaces the metadata without validating the names.
// The caller guarantees names are valid for t, as when they are derived
// from another tensor's validated names. A list of the wrong length
// panics.
func (t *Tensor) SetNamesUnchecked(names dimname.Optional) {
	if names.IsPresent() && names.Len() != t.Rank() {
		panic(fmt.Sprintf("tensor: %d names for rank %d", names.Len(), t.Rank()))
	}
	t.names = names
}

// ClearNames drops the name metadata.
func (t *Tensor) ClearNames() {
	t.names = dimname.None()
}

// Clone returns an independent copy with the same shape and names.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{shape: slices.Clone(t.shape), names: t.names}
}

// String formats the tensor as "tensor[2, 3] names=[*, c]".
func (t *Tensor) String() string {
	return fmt.Sprintf("tensor%v names=%s", t.shape, t.names)
}
