package domain

import "strings"

// Username identifies a registered account.
//
// Usernames compare case-insensitively everywhere: the credential store,
// the roster, and the public-key directory all key on the canonical form.
type Username string

// String returns the username as entered.
func (u Username) String() string { return string(u) }

// Key returns the canonical (lower-cased, trimmed) form used as a map key.
func (u Username) Key() string {
	return strings.ToLower(strings.TrimSpace(string(u)))
}

// Equal reports whether two usernames refer to the same account.
func (u Username) Equal(other Username) bool { return u.Key() == other.Key() }

// IsEmpty reports whether the username is empty or whitespace.
func (u Username) IsEmpty() bool { return u.Key() == "" }

// SystemUser is the reserved sender for server-generated notices.
const SystemUser Username = "SYSTEM"
