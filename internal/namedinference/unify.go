package namedinference

import (
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
)

// UnifyFromRight unifies two optional name lists aligned at their trailing
// ends, as broadcasting aligns shapes.
//
// If both are absent the result is absent; if only one is present it is
// returned unchanged (callers that broadcast pad the absent side with
// wildcards first). Otherwise:
//  1. Names must match pairwise from the right, else NAME_MISMATCH.
//  2. A name present in both lists must sit at the same offset from the
//     right, else MISALIGNED_NAME.
//  3. The output is the longer list's leading prefix followed by the
//     pairwise-unified suffix.
func UnifyFromRight(names, other dimname.Optional) (dimname.Optional, error) {
	a, aok := names.Get()
	b, bok := other.Get()
	switch {
	case !aok && !bok:
		return dimname.None(), nil
	case !aok:
		return other, nil
	case !bok:
		return names, nil
	}

	out, err := unifyLists(a, b)
	if err != nil {
		return dimname.None(), err
	}
	return dimname.Some(out), nil
}

func unifyLists(a, b dimname.List) (dimname.List, error) {
	out := a.Clone()
	if len(b) > len(a) {
		out = b.Clone()
	}
	aligned := min(len(a), len(b))

	for i := 1; i <= aligned; i++ {
		ia, ib := len(a)-i, len(b)-i
		u, ok := a[ia].Unify(b[ib])
		if !ok {
			return nil, &dimname.NameError{
				Code: dimname.ErrCodeNameMismatch,
				Message: fmt.Sprintf("name %q at index %d does not match %q at index %d (dimension %d from the right)",
					a[ia], ia, b[ib], ib, i),
				Name:          a[ia],
				Other:         b[ib],
				Position:      ia,
				OtherPosition: ib,
				Names:         a,
				OtherNames:    b,
			}
		}
		if err := checkAligned(a[ia], a, b); err != nil {
			return nil, err
		}
		if err := checkAligned(b[ib], a, b); err != nil {
			return nil, err
		}
		out[len(out)-i] = u
	}
	// Every name of the shorter list has been checked above, which also
	// covers names in the longer list's unaligned prefix.
	return out, nil
}

// checkAligned fails if d occurs in both a and b at different offsets from
// the right.
func checkAligned(d dimname.Dimname, a, b dimname.List) error {
	if d.IsWildcard() {
		return nil
	}
	for _, ia := range a.Index(d) {
		for _, ib := range b.Index(d) {
			if len(a)-ia == len(b)-ib {
				continue
			}
			return &dimname.NameError{
				Code: dimname.ErrCodeMisalignedName,
				Message: fmt.Sprintf("name %q is at index %d in one operand and index %d in the other; it must be at the same position from the right",
					d, ia, ib),
				Name:          d,
				Other:         d,
				Position:      ia,
				OtherPosition: ib,
				Names:         a,
				OtherNames:    b,
			}
		}
	}
	return nil
}
