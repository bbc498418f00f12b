package dto

import (
	"time"

	"github.com/hugh/stockroom/internal/database/models"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	CompanyName   string `json:"companyName" validate:"required,max=255"`
	AdminEmail    string `json:"adminEmail" validate:"required,email"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8"`
	AdminName     string `json:"adminName" validate:"required,max=255"`
	Tier          string `json:"subscriptionTier,omitempty" validate:"omitempty,oneof=free pro enterprise"`
}

type AuthResponse struct {
	Token   string     `json:"token"`
	User    UserDTO    `json:"user"`
	Company CompanyDTO `json:"company"`
}

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	CompanyID   string     `json:"companyId"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CompanyDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	SubscriptionTier string    `json:"subscriptionTier"`
	MaxUsers         int       `json:"maxUsers"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		CompanyID:   u.TenantID.String(),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func NewCompanyDTO(t *models.Tenant) CompanyDTO {
	return CompanyDTO{
		ID:               t.ID.String(),
		Name:             t.Name,
		Code:             t.Code,
		SubscriptionTier: t.SubscriptionTier,
		MaxUsers:         t.MaxUsers,
		CreatedAt:        t.CreatedAt,
	}
}
