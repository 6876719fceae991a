package namedinference

import "github.com/roach88/namedtensor/internal/dimname"

// Named is the read side of an array this package needs.
type Named interface {
	Rank() int
	Names() dimname.Optional
}

// Renamable is a Named array whose names can be replaced.
// SetNames must validate and replace atomically; absent clears.
type Renamable interface {
	Named
	SetNames(names dimname.Optional) error
}

// HasNames reports whether any of the arrays carries names.
func HasNames[T Named](ts ...T) bool {
	for _, t := range ts {
		if t.Names().IsPresent() {
			return true
		}
	}
	return false
}
