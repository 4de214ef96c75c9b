package auth

import "errors"

// Role represents an authorisation tier of the API.
type Role string

const (
	// RoleViewer may read devices, entities and interface state.
	RoleViewer Role = "viewer"

	// RoleOperator may also send entity commands.
	RoleOperator Role = "operator"

	// RoleAdmin has full API control, including cache refreshes.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
	ErrForbidden    = errors.New("insufficient permissions")
)
