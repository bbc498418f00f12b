package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/auth"
)

type CompanyHandler struct {
	authService auth.Authenticator
	logger      *slog.Logger
}

func NewCompanyHandler(authService auth.Authenticator, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{authService: authService, logger: logger}
}

// Info returns the caller's tenant.
func (h *CompanyHandler) Info(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	tenant, err := h.authService.GetTenant(r.Context(), scope.TenantID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewCompanyDTO(tenant))
}
