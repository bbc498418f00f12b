// Package tenancy holds the explicit caller context and the only data access
// path for tenant-owned rows.
package tenancy

import (
	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
)

// Scope identifies the acting principal. It is passed explicitly to every
// repository and ledger call.
type Scope struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     models.Role
	Name     string
}

func (s Scope) Validate() error {
	if s.TenantID == uuid.Nil {
		return ErrMissingTenant
	}
	return nil
}

func (s Scope) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}
