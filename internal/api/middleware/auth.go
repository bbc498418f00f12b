package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/metrics"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/hugh/stockroom/internal/tenancy"
)

type contextKey string

const scopeKey contextKey = "scope"

// Auth resolves the bearer token into the caller's scope. Requests without
// a valid token for an active principal are rejected with 401.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				metrics.AuthFailures.WithLabelValues("missing").Inc()
				unauthorized(w, "Authentication required")
				return
			}

			scope, err := verifier.VerifyToken(r.Context(), strings.TrimSpace(token))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					metrics.AuthFailures.WithLabelValues("expired").Inc()
					unauthorized(w, "Token expired")
				case errors.Is(err, auth.ErrRevokedToken):
					metrics.AuthFailures.WithLabelValues("revoked").Inc()
					unauthorized(w, "Token revoked")
				case errors.Is(err, auth.ErrMalformedToken):
					metrics.AuthFailures.WithLabelValues("malformed").Inc()
					unauthorized(w, "Invalid token")
				default:
					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

// WithScope stores the caller's scope on ctx.
func WithScope(ctx context.Context, scope tenancy.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// GetScope returns the scope stored by Auth.
func GetScope(ctx context.Context) (tenancy.Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(tenancy.Scope)
	return scope, ok
}

// RequireRole middleware ensures the caller holds at least role.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := GetScope(r.Context())
			if !ok {
				unauthorized(w, "Authentication required")
				return
			}
			if err := policy.RequireRole(scope, role); err != nil {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="stockroom"`)
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
