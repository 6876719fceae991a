package namedinference

import (
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/tensor"
)

// PropagateNames copies src's names onto result. Both must have the same
// rank; an unnamed src leaves result unnamed.
func PropagateNames(result Renamable, src Named) error {
	if result.Rank() != src.Rank() {
		return rankMismatch(result, src.Rank(), "propagate names")
	}
	return setDerivedNames(result, src.Names())
}

// PropagateNamesExcept copies src's names onto result, leaving out the
// dimensions at excluded (indices into src; negative indices wrap,
// repeats count once).
func PropagateNamesExcept(result Renamable, src Named, excluded []int) error {
	drop, err := wrapExcluded(excluded, src.Rank())
	if err != nil {
		return err
	}

	if want := src.Rank() - len(drop); result.Rank() != want {
		return rankMismatch(result, want, "propagate names except")
	}

	names, ok := src.Names().Get()
	if !ok {
		return setDerivedNames(result, dimname.None())
	}
	kept := make(dimname.List, 0, len(names)-len(drop))
	for i, n := range names {
		if !drop[i] {
			kept = append(kept, n)
		}
	}
	return setDerivedNames(result, dimname.Some(kept))
}

// PropagateNamesForReduction propagates names for a reduction over
// excluded. With keepdim the reduced dimensions survive with extent 1 and
// keep their names; otherwise they are dropped. Out-of-range dimensions
// are rejected either way.
func PropagateNamesForReduction(result Renamable, src Named, excluded []int, keepdim bool) error {
	if !keepdim {
		return PropagateNamesExcept(result, src, excluded)
	}
	if _, err := wrapExcluded(excluded, src.Rank()); err != nil {
		return err
	}
	return PropagateNames(result, src)
}

// setDerivedNames attaches names taken from a validated source list.
// Such names (or any subset of them) cannot hold duplicates, so results
// that support it skip validation. Callers have already checked the rank.
func setDerivedNames(result Renamable, names dimname.Optional) error {
	if u, ok := result.(interface{ SetNamesUnchecked(dimname.Optional) }); ok {
		u.SetNamesUnchecked(names)
		return nil
	}
	return result.SetNames(names)
}

// wrapExcluded wraps each index against rank and returns the set.
func wrapExcluded(excluded []int, rank int) (map[int]bool, error) {
	drop := make(map[int]bool, len(excluded))
	for _, d := range excluded {
		w, err := tensor.WrapDim(d, rank)
		if err != nil {
			return nil, &dimname.NameError{
				Code:          dimname.ErrCodeDimOutOfRange,
				Message:       err.Error(),
				Position:      d,
				OtherPosition: -1,
			}
		}
		drop[w] = true
	}
	return drop, nil
}

func rankMismatch(result Named, want int, op string) *dimname.NameError {
	return &dimname.NameError{
		Code:          dimname.ErrCodeRankMismatch,
		Message:       fmt.Sprintf("%s: result has rank %d, expected %d", op, result.Rank(), want),
		Position:      -1,
		OtherPosition: -1,
	}
}
