package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/tenancy"
	"gorm.io/gorm"
)

const maxTenantCodeAttempts = 5

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrTenantNotFound     = errors.New("tenant not found")
	errCodeTaken          = errors.New("tenant code taken")
)

// Service is the credential store. Users are looked up by email across all
// tenants only here; everything else reaches them through the tenant-scoped
// repository.
type Service struct {
	db     *gorm.DB
	jwt    *JWTService
	users  *tenancy.Repository[models.User, *models.User]
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, jwt *JWTService, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		jwt:    jwt,
		users:  tenancy.NewRepository[models.User](db),
		logger: logger,
		now:    time.Now,
	}
}

// WithTx returns a copy of the service whose writes join tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	c.users = s.users.WithTx(tx)
	return &c
}

type RegisterInput struct {
	CompanyName   string
	AdminEmail    string
	AdminPassword string
	AdminName     string
	Tier          string
}

type LoginInput struct {
	Email    string
	Password string
}

type PrincipalInput struct {
	Email        string
	Name         string
	PasswordHash string
	Role         models.Role
}

type AuthResponse struct {
	Token  string
	User   *models.User
	Tenant *models.Tenant
}

// Register creates a tenant and its first admin in one transaction and
// returns a token for the admin.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	hash, err := HashPassword(input.AdminPassword)
	if err != nil {
		return nil, err
	}

	tier := input.Tier
	if tier == "" {
		tier = models.TierFree
	}

	var (
		tenant *models.Tenant
		user   *models.User
	)
	for attempt := 0; attempt < maxTenantCodeAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txs := s.WithTx(tx)

			taken, err := txs.emailTaken(ctx, input.AdminEmail)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateEmail
			}

			tenant, err = txs.createTenant(ctx, input.CompanyName, tier)
			if err != nil {
				return err
			}

			user, err = txs.CreatePrincipal(ctx, tenant.ID, PrincipalInput{
				Email:        input.AdminEmail,
				Name:         input.AdminName,
				PasswordHash: hash,
				Role:         models.RoleAdmin,
			})
			return err
		})
		if !errors.Is(err, errCodeTaken) {
			break
		}
		s.logger.Debug("tenant code collision, retrying", "attempt", attempt+1)
	}
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, tenant.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tenant registered", "tenant_id", tenant.ID, "code", tenant.Code)

	return &AuthResponse{Token: token, User: user, Tenant: tenant}, nil
}

func (s *Service) createTenant(ctx context.Context, name, tier string) (*models.Tenant, error) {
	code, err := GenerateTenantCode()
	if err != nil {
		return nil, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Tenant{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return nil, tenancy.Classify("tenant code lookup", err)
	}
	if n > 0 {
		return nil, errCodeTaken
	}

	tenant := &models.Tenant{
		Name:             name,
		Code:             code,
		SubscriptionTier: tier,
		MaxUsers:         models.MaxUsersForTier(tier),
	}
	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if tenancy.IsUniqueViolation(err) {
			return nil, errCodeTaken
		}
		return nil, tenancy.Classify("create tenant", err)
	}
	return tenant, nil
}

// CreatePrincipal adds an active user to tenantID. Email is unique across
// every tenant.
func (s *Service) CreatePrincipal(ctx context.Context, tenantID uuid.UUID, input PrincipalInput) (*models.User, error) {
	if !input.Role.Valid() {
		input.Role = models.RoleMember
	}

	taken, err := s.emailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	user, err := s.users.Insert(ctx, tenantID, &models.User{
		Email:        NormalizeEmail(input.Email),
		PasswordHash: input.PasswordHash,
		Name:         input.Name,
		Role:         input.Role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, tenancy.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&n).Error
	if err != nil {
		return false, tenancy.Classify("email lookup", err)
	}
	return n > 0, nil
}

// Authenticate returns the active user owning email and password. Every
// failure mode yields ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, tenancy.Classify("authenticate", err)
	}

	if !CheckPassword(password, user.PasswordHash) || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	tenant, err := s.GetTenant(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if updated, err := s.users.Update(ctx, user.TenantID, user.ID, tenancy.Patch{"last_login_at": now}); err != nil {
		s.logger.Warn("failed to record login time", "user_id", user.ID, "error", err)
	} else {
		user = updated
	}

	token, err := s.jwt.GenerateToken(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user, Tenant: tenant}, nil
}

// VerifyToken validates the token signature and expiry, then confirms the
// principal still exists and is active. The returned scope carries the
// stored role.
func (s *Service) VerifyToken(ctx context.Context, token string) (tenancy.Scope, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return tenancy.Scope{}, err
	}

	user, err := s.users.Get(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		if errors.Is(err, tenancy.ErrNotFound) {
			return tenancy.Scope{}, ErrRevokedToken
		}
		return tenancy.Scope{}, err
	}
	if !user.IsActive {
		return tenancy.Scope{}, ErrRevokedToken
	}

	return tenancy.Scope{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Role:     user.Role,
		Name:     user.Name,
	}, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).Where("id = ?", tenantID).Take(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, tenancy.Classify("get tenant", err)
	}
	return &tenant, nil
}

// GetUser loads a principal of the scope's tenant.
func (s *Service) GetUser(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.User, error) {
	return s.users.Get(ctx, scope.TenantID, id)
}
