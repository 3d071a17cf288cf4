// Package types holds the shared data structures used across the
// application. Handlers, storage backends and metrics all import types
// without depending on each other.
package types

// Account is a single record managed by the service.
//
// The json tags are the wire contract with existing clients: the field
// names "id", "username" and "email" must not change.
//
// ID is always assigned by the store. A client may send one on create,
// but it is ignored.
type Account struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AccountPatch carries the mutable fields of an Account.
// An update overwrites both fields; the id never changes.
type AccountPatch struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Apply overwrites the mutable fields of a with p and returns the result.
func (p AccountPatch) Apply(a Account) Account {
	a.Username = p.Username
	a.Email = p.Email
	return a
}
