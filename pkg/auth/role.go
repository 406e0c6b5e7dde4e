package auth

import "fmt"

// Role represents a user's privilege tier on the platform.
//
// Roles are a closed set and are NOT ordered: super_admin is not a
// college_admin plus extra rights, it has its own disjoint rule set.
// Any cross-tenant power must be granted explicitly where decisions
// are made, never inferred from comparing roles.
type Role string

const (
	RoleUser         Role = "user"
	RoleClubAdmin    Role = "club_admin"
	RoleCollegeAdmin Role = "college_admin"
	RoleSuperAdmin   Role = "super_admin"
)

// AllRoles returns the closed set of recognized roles.
func AllRoles() []Role {
	return []Role{RoleUser, RoleClubAdmin, RoleCollegeAdmin, RoleSuperAdmin}
}

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleClubAdmin, RoleCollegeAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleClubAdmin, RoleCollegeAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// RequiresCollegeScope reports whether identities with this role must
// resolve a college binding before performing scoped actions.
func (r Role) RequiresCollegeScope() bool {
	switch r {
	case RoleCollegeAdmin:
		return true
	case RoleUser, RoleClubAdmin, RoleSuperAdmin:
		return false
	}
	return false
}

// RequiresClubScope reports whether identities with this role must
// resolve a club binding before performing scoped actions.
func (r Role) RequiresClubScope() bool {
	switch r {
	case RoleClubAdmin:
		return true
	case RoleUser, RoleCollegeAdmin, RoleSuperAdmin:
		return false
	}
	return false
}

// CanCrossTenants reports whether the role may act on resources of any
// college. This is the single explicit cross-tenant rule; nothing else
// in the codebase may grant it.
func (r Role) CanCrossTenants() bool {
	return r == RoleSuperAdmin
}
