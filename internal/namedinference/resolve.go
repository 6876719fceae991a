package namedinference

import (
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
)

// DimnameToPosition returns the index of the dimension of t named name.
//
// name must not be the wildcard. Fails with NAME_NOT_FOUND when t is
// unnamed, when no dimension carries the name, or when more than one does
// (which a validated tensor never allows).
func DimnameToPosition(t Named, name dimname.Dimname) (int, error) {
	if name.IsWildcard() {
		return -1, &dimname.NameError{
			Code:          dimname.ErrCodeInvalidName,
			Message:       "the wildcard cannot be used to look up a dimension",
			Position:      -1,
			OtherPosition: -1,
		}
	}

	names, ok := t.Names().Get()
	if !ok {
		return -1, notFound(name, nil, "tensor has no names")
	}

	idx := names.Index(name)
	switch len(idx) {
	case 1:
		return idx[0], nil
	case 0:
		return -1, notFound(name, names, fmt.Sprintf("name %q not found", name))
	default:
		return -1, notFound(name, names, fmt.Sprintf("name %q is ambiguous: it labels dimensions %v", name, idx))
	}
}

// DimnamesToPositions resolves each name in order. The first failure is
// returned and no partial result is produced.
func DimnamesToPositions(t Named, names dimname.List) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		pos, err := DimnameToPosition(t, n)
		if err != nil {
			return nil, err
		}
		out[i] = pos
	}
	return out, nil
}

func notFound(name dimname.Dimname, names dimname.List, msg string) *dimname.NameError {
	return &dimname.NameError{
		Code:          dimname.ErrCodeNameNotFound,
		Message:       msg,
		Name:          name,
		Position:      -1,
		OtherPosition: -1,
		Names:         names,
	}
}
