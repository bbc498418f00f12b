package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/policy"
)

type UserHandler struct {
	policy *policy.Service
	logger *slog.Logger
}

func NewUserHandler(p *policy.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{policy: p, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	users, err := withStorageRetry(r.Context(), h.logger, func() ([]models.User, error) {
		return h.policy.ListUsers(r.Context(), scope)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserDTO(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.InviteUserRequest
	if !decode(w, r, &req) {
		return
	}

	inv, err := withStorageRetry(r.Context(), h.logger, func() (*policy.Invitation, error) {
		return h.policy.Invite(r.Context(), scope, policy.InviteInput{
			Email: req.Email,
			Name:  req.Name,
			Role:  models.Role(req.Role),
		})
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.InviteUserResponse{
		User:              dto.NewUserDTO(inv.User),
		TemporaryPassword: inv.TemporaryPassword,
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := requireScope(w, r)
	if !ok {
		return
	}

	var req dto.DeleteRequest
	if !decode(w, r, &req) {
		return
	}
	id, ok := parseID(w, req.ID, "user")
	if !ok {
		return
	}

	_, err := withStorageRetry(r.Context(), h.logger, func() (struct{}, error) {
		return struct{}{}, h.policy.DeleteUser(r.Context(), scope, id)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "User deleted"})
}
