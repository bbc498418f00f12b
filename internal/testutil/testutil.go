package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/tenancy"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password of every user created by CreateTestUser.
const TestPassword = "testpassword123"

// SetupTestDB creates a private in-memory SQLite database with the schema
// applied. Barcodes are globally unique unless globalBarcodes is false.
func SetupTestDB(t *testing.T, globalBarcodes bool) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// SQLite allows a single writer; one connection keeps transactions serial.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db, globalBarcodes); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestTenant creates a tenant with a random code.
func CreateTestTenant(t *testing.T, db *gorm.DB, name string) *models.Tenant {
	t.Helper()

	code, err := auth.GenerateTenantCode()
	if err != nil {
		t.Fatalf("failed to generate tenant code: %v", err)
	}

	tenant := &models.Tenant{
		Name:             name,
		Code:             code,
		SubscriptionTier: models.TierFree,
		MaxUsers:         models.MaxUsersForTier(models.TierFree),
	}

	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("failed to create test tenant: %v", err)
	}

	return tenant
}

// CreateTestUser creates an active user with TestPassword in the tenant.
func CreateTestUser(t *testing.T, db *gorm.DB, tenant *models.Tenant, role models.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Name:         "Test " + string(role),
		Role:         role,
		IsActive:     true,
		TenantID:     tenant.ID,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 7*24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.TenantID, user.Role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// ScopeFor builds the explicit caller scope for user.
func ScopeFor(user *models.User) tenancy.Scope {
	return tenancy.Scope{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Role:     user.Role,
		Name:     user.Name,
	}
}

// CreateTestItem inserts an item directly, bypassing the ledger.
func CreateTestItem(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name, barcode string, quantity int) *models.Item {
	t.Helper()

	item := &models.Item{
		Name:     name,
		Barcode:  barcode,
		Quantity: quantity,
		TenantID: tenantID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test item: %v", err)
	}
	return item
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	t          *testing.T
	DB         *gorm.DB
	JWTService *auth.JWTService
	Tenant     *models.Tenant
	Admin      *models.User
	Member     *models.User
	Token      string
	AdminToken string
}

// NewTestContext creates a tenant with an admin and a member. Token belongs
// to the member.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()
	return NewTestContextWithScope(t, true)
}

// NewTestContextWithScope is NewTestContext with an explicit barcode scope.
func NewTestContextWithScope(t *testing.T, globalBarcodes bool) *TestSetup {
	t.Helper()

	db := SetupTestDB(t, globalBarcodes)
	jwtService := CreateTestJWTService()
	tenant := CreateTestTenant(t, db, "Test Company")
	admin := CreateTestUser(t, db, tenant, models.RoleAdmin)
	member := CreateTestUser(t, db, tenant, models.RoleMember)

	return &TestSetup{
		t:          t,
		DB:         db,
		JWTService: jwtService,
		Tenant:     tenant,
		Admin:      admin,
		Member:     member,
		Token:      GenerateTestToken(t, jwtService, member),
		AdminToken: GenerateTestToken(t, jwtService, admin),
	}
}

// Cleanup releases the test database.
func (s *TestSetup) Cleanup() {
	CleanupTestDB(s.t, s.DB)
}

// SecondTenant creates an unrelated tenant with one admin and returns the
// admin and its token.
func (s *TestSetup) SecondTenant(name string) (*models.Tenant, *models.User, string) {
	s.t.Helper()
	tenant := CreateTestTenant(s.t, s.DB, name)
	admin := CreateTestUser(s.t, s.DB, tenant, models.RoleAdmin)
	return tenant, admin, GenerateTestToken(s.t, s.JWTService, admin)
}
