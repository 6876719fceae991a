package dimname

import (
	"encoding/json"
	"fmt"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// WildcardSymbol is the text form of the wildcard.
const WildcardSymbol = "*"

// Dimname labels one dimension of an array, or is the wildcard.
// The zero value is the wildcard.
type Dimname struct {
	name string // empty for the wildcard
}

// Wildcard returns the wildcard Dimname.
func Wildcard() Dimname {
	return Dimname{}
}

// New creates a named Dimname. The identifier is NFC normalised and must
// start with a letter or underscore, followed by letters, digits or
// underscores.
func New(name string) (Dimname, error) {
	name = norm.NFC.String(name)
	if !IsValidIdentifier(name) {
		return Dimname{}, &NameError{
			Code:          ErrCodeInvalidName,
			Message:       fmt.Sprintf("%q is not a valid identifier for a dimension name", name),
			Position:      -1,
			OtherPosition: -1,
		}
	}
	return Dimname{name: name}, nil
}

// Parse reads the text form: "*" is the wildcard, anything else must be a
// valid identifier.
func Parse(s string) (Dimname, error) {
	if s == WildcardSymbol {
		return Wildcard(), nil
	}
	return New(s)
}

// Must is like Parse but panics on error.
// Use only in tests or with literal names.
func Must(s string) Dimname {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsValidIdentifier reports whether s can be used as a dimension name.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// IsWildcard reports whether d is the wildcard.
func (d Dimname) IsWildcard() bool {
	return d.name == ""
}

// Name returns the identifier, or "" for the wildcard.
func (d Dimname) Name() string {
	return d.name
}

// String returns the identifier, or "*" for the wildcard.
func (d Dimname) String() string {
	if d.IsWildcard() {
		return WildcardSymbol
	}
	return d.name
}

// Matches reports whether d and other can label the same dimension:
// either is a wildcard, or both carry the same identifier.
func (d Dimname) Matches(other Dimname) bool {
	return d.IsWildcard() || other.IsWildcard() || d.name == other.name
}

// Unify returns the more specific of two matching names.
// ok is false if the names do not match.
func (d Dimname) Unify(other Dimname) (unified Dimname, ok bool) {
	switch {
	case d.IsWildcard():
		return other, true
	case other.IsWildcard() || d.name == other.name:
		return d, true
	default:
		return Dimname{}, false
	}
}

// MarshalJSON encodes a named Dimname as a string and the wildcard as null.
func (d Dimname) MarshalJSON() ([]byte, error) {
	if d.IsWildcard() {
		return []byte("null"), nil
	}
	return json.Marshal(d.name)
}

// UnmarshalJSON accepts null or "*" for the wildcard and an identifier
// string otherwise.
func (d *Dimname) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dimname: %w", err)
	}
	if s == nil {
		*d = Wildcard()
		return nil
	}
	parsed, err := Parse(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
