package auth

import (
	"slices"

	"github.com/nekogravitycat/crm-backend/internal/pkg/apperror"
)

// Role is a user's authorization level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSales   Role = "sales"
	RoleSupport Role = "support"
)

// DefaultRole is assigned at registration when none is requested.
const DefaultRole = RoleSales

var Roles = []Role{RoleAdmin, RoleManager, RoleSales, RoleSupport}

func (r Role) Valid() bool { return slices.Contains(Roles, r) }

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID int64
	Email  string
	Role   Role
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	return slices.Contains(roles, i.Role)
}

// DeleteRoles may remove contacts, organizations, deals and tasks.
var DeleteRoles = []Role{RoleAdmin, RoleManager}

// ErrForbidden is returned when the caller's role does not allow an action.
var ErrForbidden = apperror.Forbidden("Access denied. Insufficient permissions.")

// CanDelete reports whether the identity may delete CRM records.
func (i Identity) CanDelete() bool {
	return i.HasRole(DeleteRoles...)
}
