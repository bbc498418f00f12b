package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/tenancy"
)

// Authenticator defines the credential store operations used by handlers.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
}

// TokenVerifier turns a bearer token into the caller's scope.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (tenancy.Scope, error)
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID, tenantID uuid.UUID, role models.Role) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator = (*Service)(nil)
	_ TokenVerifier = (*Service)(nil)
	_ TokenService  = (*JWTService)(nil)
)
