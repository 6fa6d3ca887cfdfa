package enums

import "fmt"

// ActorRole identifies the kind of principal behind a request.
type ActorRole string

const (
	RoleCompanyUser ActorRole = "company_user"
	RoleSuperAdmin  ActorRole = "super_admin"
)

var validActorRoles = []ActorRole{
	RoleCompanyUser,
	RoleSuperAdmin,
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
