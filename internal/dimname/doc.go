// Package dimname provides the dimension-name value types shared by every
// other package in this module.
//
// This package contains value types and the name-list validator only. It
// imports nothing internal.
//
// Key design constraints:
//   - A Dimname is either a wildcard or a valid identifier, never empty
//   - Identifiers are NFC normalised on construction
//   - "No names" (Optional absent) and "all wildcards" are distinct states
//   - No two non-wildcard names in one List may be equal
package dimname
