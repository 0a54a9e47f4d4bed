package auth

import (
	"errors"
	"fmt"
)

// Role represents an administrative role. The set is closed: values outside
// the three constants below are invalid everywhere in the system.
type Role string

const (
	RoleSuperAdmin Role = "superAdmin" // Full access, including user management
	RoleAdmin      Role = "admin"      // Full access, including user management
	RoleSupport    Role = "support"    // Read access to contacts and projects
)

// ParseRole validates a raw role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleSupport:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// RoleSet is an allowed-role set for a protected resource.
type RoleSet []Role

// Contains reports whether the set includes the given role.
func (s RoleSet) Contains(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every role in s is also in other. Per-resource
// role sets must be subsets of the coarse middleware set; a page must never
// admit a role the middleware would already have blocked.
func (s RoleSet) SubsetOf(other RoleSet) bool {
	for _, r := range s {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Predefined role sets. AdminRoles is the coarse middleware set for any
// protected-admin route; the narrower sets are the per-resource defaults.
var (
	AdminRoles          = RoleSet{RoleSuperAdmin, RoleAdmin, RoleSupport}
	UserManagementRoles = RoleSet{RoleSuperAdmin, RoleAdmin}
	ContactViewerRoles  = RoleSet{RoleSuperAdmin, RoleAdmin, RoleSupport}
)

// RoleSetFromNames parses configured role names into a RoleSet. Any unknown
// name is an error so a typo in configuration cannot widen or silently empty
// a resource's allowed set.
func RoleSetFromNames(names []string) (RoleSet, error) {
	set := make(RoleSet, 0, len(names))
	for _, name := range names {
		role, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		set = append(set, role)
	}
	return set, nil
}

// Identity is the resolved authenticated user projection used for
// authorization decisions. It is derived per-request and never persisted.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

var (
	// ErrUnauthenticated indicates no valid identity was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnauthorized indicates a valid identity with insufficient role.
	ErrUnauthorized = errors.New("insufficient role")
)

// Authorize verifies that the identity exists and its role is in the allowed
// set. It returns the identity on success so callers can chain it; on failure
// it returns ErrUnauthenticated or ErrUnauthorized, never a silent pass.
func Authorize(identity *Identity, allowed RoleSet) (*Identity, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if !identity.Role.Valid() {
		// An out-of-enum role is treated as no identity at all.
		return nil, ErrUnauthenticated
	}
	if !allowed.Contains(identity.Role) {
		return nil, ErrUnauthorized
	}
	return identity, nil
}
