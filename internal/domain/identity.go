package domain

import "github.com/google/uuid"

// Identity is the verified principal attached to a request or a live
// connection at handshake time. It is populated once from the token
// claims and passed by reference through all subsequent handling.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  Role
}

// IsSupport reports whether the identity belongs to the support team
func (i Identity) IsSupport() bool {
	return i.Role == RoleSupport
}
