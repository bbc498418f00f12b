package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/ledger"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/hugh/stockroom/internal/tenancy"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into req and validates it. On failure the 400
// response has been written and ok is false.
func decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	if details := dto.Validate(req); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: details})
		return false
	}
	return true
}

// parseID parses raw as a uuid or writes a 400 naming what.
func parseID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// requireScope returns the authenticated caller or writes a 401.
func requireScope(w http.ResponseWriter, r *http.Request) (tenancy.Scope, bool) {
	scope, ok := middleware.GetScope(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Authentication required"})
	}
	return scope, ok
}

// writeError maps a service error to a status code and one public message.
// Internal detail is logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, auth.ErrRevokedToken):
		return http.StatusUnauthorized, "Token revoked"
	case errors.Is(err, auth.ErrMalformedToken), errors.Is(err, tenancy.ErrMissingTenant):
		return http.StatusUnauthorized, "Invalid token"

	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, ledger.ErrDuplicateBarcode):
		return http.StatusBadRequest, "Barcode already exists"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must not be negative"
	case errors.Is(err, ledger.ErrInvalidItem):
		return http.StatusBadRequest, "Item name and barcode are required"
	case errors.Is(err, policy.ErrInvalidInvitation):
		return http.StatusBadRequest, "Email and name are required"
	case errors.Is(err, policy.ErrUserLimitReached):
		return http.StatusBadRequest, "User limit reached for this company"
	case errors.Is(err, policy.ErrSelfDeletion):
		return http.StatusBadRequest, "Cannot delete your own account"

	case errors.Is(err, policy.ErrForbidden):
		return http.StatusForbidden, "Insufficient permissions"

	case errors.Is(err, auth.ErrTenantNotFound):
		return http.StatusNotFound, "Company not found"
	case errors.Is(err, tenancy.ErrNotFound):
		return http.StatusNotFound, "Not found"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// withStorageRetry runs fn again once when it fails with a storage error
// and the request is still live. Failed transactions have rolled back
// before fn returns.
func withStorageRetry[T any](ctx context.Context, logger *slog.Logger, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil || !tenancy.IsStorageError(err) || ctx.Err() != nil {
		return v, err
	}
	logger.Warn("retrying after storage error", "error", err)
	return fn()
}
