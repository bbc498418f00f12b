package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/pkg/queue"
)

// Task type names
const (
	TypeInvitationEmail = "invitation:email"
)

// InvitationEmailPayload contains the data for an invitation mail task
type InvitationEmailPayload struct {
	UserID            uuid.UUID `json:"user_id"`
	TenantID          uuid.UUID `json:"tenant_id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	TenantName        string    `json:"tenant_name"`
	TenantCode        string    `json:"tenant_code"`
	InvitedBy         string    `json:"invited_by"`
	TemporaryPassword string    `json:"temporary_password"`
}

func NewInvitationEmailTask(payload InvitationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInvitationEmail, data,
		asynq.Queue(queue.QueueCritical),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour),
	), nil
}
