package dimname

import "fmt"

// Validate checks that names can be attached to an array of the given rank.
//
// Returns RANK_MISMATCH if len(names) != rank, or DUPLICATE_NAME for the
// first repeated non-wildcard name (Position is the earlier occurrence,
// OtherPosition the later one).
func Validate(names List, rank int) error {
	if len(names) != rank {
		return NewRankMismatchError(names, rank)
	}
	return checkDuplicates(names)
}

func checkDuplicates(names List) error {
	seen := make(map[Dimname]int, len(names))
	for i, d := range names {
		if d.IsWildcard() {
			continue
		}
		if first, dup := seen[d]; dup {
			return &NameError{
				Code:          ErrCodeDuplicateName,
				Message:       fmt.Sprintf("name %q appears at positions %d and %d", d, first, i),
				Name:          d,
				Position:      first,
				OtherPosition: i,
				Names:         names,
			}
		}
		seen[d] = i
	}
	return nil
}
