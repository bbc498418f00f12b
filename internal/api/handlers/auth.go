package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/metrics"
)

type AuthHandler struct {
	authService auth.Authenticator
	logger      *slog.Logger
}

func NewAuthHandler(authService auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := withStorageRetry(r.Context(), h.logger, func() (*auth.AuthResponse, error) {
		return h.authService.Register(r.Context(), auth.RegisterInput{
			CompanyName:   req.CompanyName,
			AdminEmail:    req.AdminEmail,
			AdminPassword: req.AdminPassword,
			AdminName:     req.AdminName,
			Tier:          req.Tier,
		})
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Token:   resp.Token,
		User:    dto.NewUserDTO(resp.User),
		Company: dto.NewCompanyDTO(resp.Tenant),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := withStorageRetry(r.Context(), h.logger, func() (*auth.AuthResponse, error) {
		return h.authService.Login(r.Context(), auth.LoginInput{
			Email:    req.Email,
			Password: req.Password,
		})
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		}
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token:   resp.Token,
		User:    dto.NewUserDTO(resp.User),
		Company: dto.NewCompanyDTO(resp.Tenant),
	})
}
