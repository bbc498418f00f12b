package policy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/internal/tenancy"
	"gorm.io/gorm"
)

// InvitationNotifier is told about every committed invitation.
type InvitationNotifier interface {
	InvitationCreated(ctx context.Context, payload tasks.InvitationEmailPayload) error
}

// Service manages principals. Every operation requires an admin scope.
type Service struct {
	db       *gorm.DB
	auth     *auth.Service
	users    *tenancy.Repository[models.User, *models.User]
	notifier InvitationNotifier
	logger   *slog.Logger
}

func NewService(db *gorm.DB, authService *auth.Service, notifier InvitationNotifier, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		auth:     authService,
		users:    tenancy.NewRepository[models.User](db),
		notifier: notifier,
		logger:   logger,
	}
}

type InviteInput struct {
	Email string
	Name  string
	Role  models.Role
}

// Invitation is a freshly created principal and its one-time password.
type Invitation struct {
	User              *models.User
	TemporaryPassword string
}

// ListUsers returns the tenant's principals ordered by name.
func (s *Service) ListUsers(ctx context.Context, scope tenancy.Scope) ([]models.User, error) {
	if err := RequireRole(scope, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.Find(ctx, scope.TenantID, tenancy.Filter{Order: "name ASC"})
}

// Invite creates an active principal with a temporary password, subject to
// the tenant's seat limit, then queues the invitation mail.
func (s *Service) Invite(ctx context.Context, scope tenancy.Scope, input InviteInput) (*Invitation, error) {
	if err := RequireRole(scope, models.RoleAdmin); err != nil {
		return nil, err
	}
	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Name == "" {
		return nil, ErrInvalidInvitation
	}
	if !input.Role.Valid() {
		input.Role = models.RoleMember
	}

	password, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var (
		tenant *models.Tenant
		user   *models.User
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authTx := s.auth.WithTx(tx)

		var err error
		tenant, err = authTx.GetTenant(ctx, scope.TenantID)
		if err != nil {
			return err
		}

		count, err := s.users.WithTx(tx).Count(ctx, scope.TenantID, nil)
		if err != nil {
			return err
		}
		if tenant.MaxUsers > 0 && count >= int64(tenant.MaxUsers) {
			return ErrUserLimitReached
		}

		user, err = authTx.CreatePrincipal(ctx, scope.TenantID, auth.PrincipalInput{
			Email:        input.Email,
			Name:         input.Name,
			PasswordHash: hash,
			Role:         input.Role,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user invited",
		"tenant_id", scope.TenantID,
		"user_id", user.ID,
		"invited_by", scope.UserID,
	)

	if s.notifier != nil {
		if err := s.notifier.InvitationCreated(ctx, tasks.InvitationEmailPayload{
			UserID:            user.ID,
			TenantID:          tenant.ID,
			Email:             user.Email,
			Name:              user.Name,
			TenantName:        tenant.Name,
			TenantCode:        tenant.Code,
			InvitedBy:         scope.Name,
			TemporaryPassword: password,
		}); err != nil {
			s.logger.Warn("failed to queue invitation mail", "user_id", user.ID, "error", err)
		}
	}

	return &Invitation{User: user, TemporaryPassword: password}, nil
}

// DeleteUser removes a principal of the caller's tenant. Audit entries keep
// the actor name they were written with.
func (s *Service) DeleteUser(ctx context.Context, scope tenancy.Scope, userID uuid.UUID) error {
	if err := RequireRole(scope, models.RoleAdmin); err != nil {
		return err
	}
	if userID == scope.UserID {
		return ErrSelfDeletion
	}

	if err := s.users.Delete(ctx, scope.TenantID, userID); err != nil {
		if !errors.Is(err, tenancy.ErrNotFound) {
			s.logger.Error("failed to delete user", "user_id", userID, "error", err)
		}
		return err
	}

	s.logger.Info("user deleted", "tenant_id", scope.TenantID, "user_id", userID, "deleted_by", scope.UserID)
	return nil
}
