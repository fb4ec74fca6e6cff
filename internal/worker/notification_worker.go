package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Drainer waits for queued deliveries to finish.
type Drainer interface {
	Wait(ctx context.Context) error
}

// NotificationWorker links domain events to outbound email for the life of the process.
type NotificationWorker struct {
	notifications *service.NotificationService
	queue         Drainer
	logger        *zap.Logger
}

// NewNotificationWorker constructs the worker. A nil queue makes Stop a no-op.
func NewNotificationWorker(notifications *service.NotificationService, queue Drainer, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{notifications: notifications, queue: queue, logger: logger}
}

// Start registers notification handlers on the dispatcher.
func (w *NotificationWorker) Start() {
	if w.notifications == nil {
		return
	}
	w.notifications.RegisterHandlers()
	w.logger.Info("notification worker started")
}

// Stop waits for queued emails until ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w.queue == nil {
		return nil
	}
	return w.queue.Wait(ctx)
}
