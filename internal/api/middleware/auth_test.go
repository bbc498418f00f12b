package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/tenancy"
	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	scope tenancy.Scope
	err   error
	calls int
	token string
}

func (v *stubVerifier) VerifyToken(_ context.Context, token string) (tenancy.Scope, error) {
	v.calls++
	v.token = token
	return v.scope, v.err
}

func okHandler(t *testing.T, want tenancy.Scope) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := GetScope(r.Context())
		assert.True(t, ok)
		assert.Equal(t, want, scope)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func mustNotRun(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	})
}

func TestAuth_ValidToken(t *testing.T) {
	scope := tenancy.Scope{TenantID: uuid.New(), UserID: uuid.New(), Role: models.RoleMember, Name: "Sam"}
	verifier := &stubVerifier{scope: scope}

	req := httptest.NewRequest("GET", "/api/items", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	Auth(verifier)(okHandler(t, scope)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "good-token", verifier.token)
}

func TestAuth_MissingOrNonBearer(t *testing.T) {
	for name, header := range map[string]string{
		"no header":    "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"empty bearer": "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			verifier := &stubVerifier{}

			req := httptest.NewRequest("GET", "/api/items", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			req.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})

			rec := httptest.NewRecorder()
			Auth(verifier)(mustNotRun(t)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Authentication required")
			assert.Zero(t, verifier.calls)
		})
	}
}

func TestAuth_TokenErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
		{auth.ErrRevokedToken, http.StatusUnauthorized, "Token revoked"},
		{auth.ErrMalformedToken, http.StatusUnauthorized, "Invalid token"},
		{errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/items", nil)
			req.Header.Set("Authorization", "Bearer some-token")

			rec := httptest.NewRecorder()
			Auth(&stubVerifier{err: tt.err})(mustNotRun(t)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestRequireRole(t *testing.T) {
	admin := tenancy.Scope{TenantID: uuid.New(), UserID: uuid.New(), Role: models.RoleAdmin}
	member := tenancy.Scope{TenantID: uuid.New(), UserID: uuid.New(), Role: models.RoleMember}

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/users", nil)
		req = req.WithContext(WithScope(req.Context(), admin))

		rec := httptest.NewRecorder()
		RequireRole(models.RoleAdmin)(okHandler(t, admin)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/users", nil)
		req = req.WithContext(WithScope(req.Context(), member))

		rec := httptest.NewRecorder()
		RequireRole(models.RoleAdmin)(mustNotRun(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no scope is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/users", nil)

		rec := httptest.NewRecorder()
		RequireRole(models.RoleAdmin)(mustNotRun(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetScope_Empty(t *testing.T) {
	_, ok := GetScope(context.Background())
	assert.False(t, ok)
}
