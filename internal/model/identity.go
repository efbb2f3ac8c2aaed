package model

// Identity is the verified principal extracted from an access token.
type Identity struct {
	ID    uint64
	Email string
	Role  string
}

// Can reports whether the identity holds one of the given roles.
// An empty role set grants nothing.
func (i Identity) Can(roles ...string) bool {
	for _, r := range roles {
		if r != "" && r == i.Role {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for Can(RoleAdmin).
func (i Identity) IsAdmin() bool { return i.Can(RoleAdmin) }
