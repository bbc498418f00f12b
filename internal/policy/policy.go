// Package policy gates privileged operations by role and manages the
// principals of a tenant.
package policy

import (
	"errors"

	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/tenancy"
)

var (
	ErrForbidden         = errors.New("insufficient permissions")
	ErrSelfDeletion      = errors.New("cannot delete your own account")
	ErrUserLimitReached  = errors.New("user limit reached for this company")
	ErrInvalidInvitation = errors.New("email and name are required")
)

var roleRank = map[models.Role]int{
	models.RoleMember: 1,
	models.RoleAdmin:  2,
}

// RequireRole succeeds when scope's role is at least required.
func RequireRole(scope tenancy.Scope, required models.Role) error {
	have, ok := roleRank[scope.Role]
	if !ok || have < roleRank[required] {
		return ErrForbidden
	}
	return nil
}
