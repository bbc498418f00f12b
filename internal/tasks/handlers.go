package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/pkg/mailer"
)

type Handler struct {
	mailer mailer.Sender
	logger *slog.Logger
}

// NewHandler builds the task handler. With a nil sender invitations are
// logged instead of mailed.
func NewHandler(sender mailer.Sender, logger *slog.Logger) *Handler {
	return &Handler{
		mailer: sender,
		logger: logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvitationEmail, h.HandleInvitationEmail)
}

func (h *Handler) HandleInvitationEmail(ctx context.Context, t *asynq.Task) error {
	var payload InvitationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" {
		return fmt.Errorf("invitation without recipient: %w", asynq.SkipRetry)
	}

	if h.mailer == nil {
		h.logger.Info("smtp not configured, skipping invitation mail",
			"user_id", payload.UserID,
			"tenant_id", payload.TenantID,
			"email", payload.Email,
		)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := h.mailer.Send(invitationMessage(payload)); err != nil {
		h.logger.Error("invitation mail failed", "user_id", payload.UserID, "error", err)
		return err
	}

	h.logger.Info("invitation mail sent", "user_id", payload.UserID, "tenant_id", payload.TenantID)
	return nil
}

func invitationMessage(p InvitationEmailPayload) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", p.Name)
	if p.InvitedBy != "" {
		fmt.Fprintf(&b, "%s invited you to %s on Stockroom.\n\n", p.InvitedBy, p.TenantName)
	} else {
		fmt.Fprintf(&b, "You have been invited to %s on Stockroom.\n\n", p.TenantName)
	}
	fmt.Fprintf(&b, "Company code: %s\n", p.TenantCode)
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "Temporary password: %s\n\n", p.TemporaryPassword)
	b.WriteString("Sign in with your email and this password.\n")

	return mailer.Message{
		To:      p.Email,
		Subject: fmt.Sprintf("You're invited to %s", p.TenantName),
		Body:    b.String(),
	}
}
