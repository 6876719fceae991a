package dimname

import (
	"slices"
	"strings"
)

// List is an ordered sequence of Dimnames, one per dimension, left to right.
type List []Dimname

// ParseList parses each element with Parse.
func ParseList(names ...string) (List, error) {
	l := make(List, len(names))
	for i, s := range names {
		d, err := Parse(s)
		if err != nil {
			if ne, ok := err.(*NameError); ok {
				ne.Position = i
			}
			return nil, err
		}
		l[i] = d
	}
	return l, nil
}

// MustList is like ParseList but panics on error.
// Use only in tests or with literal names.
func MustList(names ...string) List {
	l, err := ParseList(names...)
	if err != nil {
		panic(err)
	}
	return l
}

// Wildcards returns a List of n wildcards.
func Wildcards(n int) List {
	return make(List, n)
}

// Clone returns a copy that shares no storage with l.
// The clone of a nil List is an empty, non-nil List.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Equal reports exact equality: same length, and every position holds the
// same name (wildcards equal only wildcards).
func (l List) Equal(other List) bool {
	return slices.Equal(l, other)
}

// Index returns every position whose name matches the non-wildcard name d
// exactly.
func (l List) Index(d Dimname) []int {
	var idx []int
	for i, n := range l {
		if !n.IsWildcard() && n == d {
			idx = append(idx, i)
		}
	}
	return idx
}

// Strings returns the text form of each name.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.String()
	}
	return out
}

// String formats the list as "[*, c, h, w]".
func (l List) String() string {
	return "[" + strings.Join(l.Strings(), ", ") + "]"
}
