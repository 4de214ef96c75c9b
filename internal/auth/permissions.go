package auth

// Permission represents a named capability of the API.
type Permission string

// Permission constants.
const (
	PermEntityRead    Permission = "entity:read"
	PermEntityOperate Permission = "entity:operate"
	PermCacheRefresh  Permission = "cache:refresh"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermEntityRead,
	},
	RoleOperator: {
		PermEntityRead,
		PermEntityOperate,
	},
	RoleAdmin: {
		PermEntityRead,
		PermEntityOperate,
		PermCacheRefresh,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
