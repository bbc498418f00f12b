package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is a principal. Email is stored lowercased and is unique across all tenants.
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null" json:"name"`
	Role         Role       `gorm:"not null;default:'member'" json:"role"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	TenantID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"tenant_id"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) OwnerTenant() uuid.UUID { return u.TenantID }
func (u *User) AssignTenant(tenantID uuid.UUID) { u.TenantID = tenantID }
