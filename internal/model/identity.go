package model

import "strings"

// Identity is the resolved caller of a request.  Email is the attribute
// used to namespace locks and to query the remote backend for active
// check-ins; ID is the stable subject identifier from the bearer token.
type Identity struct {
	ID    string `json:"identifier"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Key returns the normalised identity key used in lock names.
func (i Identity) Key() string {
	return strings.ToLower(strings.TrimSpace(i.Email))
}
