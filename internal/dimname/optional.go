package dimname

import "encoding/json"

// Optional is a List that may be absent.
//
// Absent means the array carries no name metadata at all. It is distinct
// from a present List of wildcards and from a present empty List (a named
// rank-0 array).
type Optional struct {
	names   List
	present bool
}

// Some wraps names as present. The List is cloned.
func Some(names List) Optional {
	return Optional{names: names.Clone(), present: true}
}

// None returns the absent Optional.
func None() Optional {
	return Optional{}
}

// Get returns the names and whether they are present.
// The returned List is a copy.
func (o Optional) Get() (List, bool) {
	if !o.present {
		return nil, false
	}
	return o.names.Clone(), true
}

// IsPresent reports whether names are attached.
func (o Optional) IsPresent() bool {
	return o.present
}

// Len returns the number of names, or 0 when absent.
func (o Optional) Len() int {
	return len(o.names)
}

// OrWildcards returns the names, or rank wildcards when absent.
func (o Optional) OrWildcards(rank int) List {
	if !o.present {
		return Wildcards(rank)
	}
	return o.names.Clone()
}

// Equal reports whether both are absent, or both present with equal lists.
func (o Optional) Equal(other Optional) bool {
	if o.present != other.present {
		return false
	}
	return !o.present || o.names.Equal(other.names)
}

// String returns "<none>" when absent, otherwise the list form.
func (o Optional) String() string {
	if !o.present {
		return "<none>"
	}
	return o.names.String()
}

// MarshalJSON encodes absent as null and present as an array.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.names.Clone())
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (o *Optional) UnmarshalJSON(data []byte) error {
	var l *List
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	if l == nil {
		*o = None()
		return nil
	}
	*o = Some(*l)
	return nil
}
