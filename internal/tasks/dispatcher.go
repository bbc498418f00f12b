package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues background work. A nil client turns every call into
// a logged no-op.
type Dispatcher struct {
	client Enqueuer
	logger *slog.Logger
}

func NewDispatcher(client Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// InvitationCreated queues delivery of the invitation mail.
func (d *Dispatcher) InvitationCreated(ctx context.Context, payload InvitationEmailPayload) error {
	if d.client == nil {
		d.logger.Warn("task queue not configured, invitation mail not sent",
			"user_id", payload.UserID,
			"tenant_id", payload.TenantID,
		)
		return nil
	}

	task, err := NewInvitationEmailTask(payload)
	if err != nil {
		return fmt.Errorf("create invitation task: %w", err)
	}

	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue invitation task: %w", err)
	}

	d.logger.Info("invitation mail queued", "task_id", info.ID, "user_id", payload.UserID)
	return nil
}
