package domain

// Role is the caller's authorization tier. Roles are strictly ordered by
// privilege: Anonymous < RoleUser < RoleAdmin < RoleOwner.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
	RoleOwner
)

// AtLeast reports whether the role meets a minimum required tier.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "anonymous"
	}
}
