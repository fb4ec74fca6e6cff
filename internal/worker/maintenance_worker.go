package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Second

// ResetTokenPurger removes expired or consumed password reset tokens.
type ResetTokenPurger interface {
	PurgeResetTokens(ctx context.Context) (int64, error)
}

// MaintenanceWorker runs periodic housekeeping on a UTC cron schedule.
type MaintenanceWorker struct {
	cron    *cron.Cron
	purger  ResetTokenPurger
	logger  *zap.Logger
	enabled bool
}

// NewMaintenanceWorker schedules the reset token purge. An empty spec disables it.
func NewMaintenanceWorker(purger ResetTokenPurger, spec string, logger *zap.Logger) (*MaintenanceWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &MaintenanceWorker{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		purger: purger,
		logger: logger,
	}
	if spec == "" || purger == nil {
		return w, nil
	}
	if _, err := w.cron.AddFunc(spec, func() { w.PurgeResetTokens(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule reset token purge %q: %w", spec, err)
	}
	w.enabled = true
	return w, nil
}

// Enabled reports whether any job is scheduled.
func (w *MaintenanceWorker) Enabled() bool {
	return w.enabled
}

// Start begins the schedule in the background.
func (w *MaintenanceWorker) Start() {
	if !w.enabled {
		return
	}
	w.cron.Start()
	w.logger.Info("maintenance worker started", zap.Int("jobs", len(w.cron.Entries())))
}

// Stop halts the schedule and waits for a running job or ctx, whichever ends first.
func (w *MaintenanceWorker) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PurgeResetTokens runs one purge pass.
func (w *MaintenanceWorker) PurgeResetTokens(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	purged, err := w.purger.PurgeResetTokens(ctx)
	if err != nil {
		w.logger.Error("reset token purge failed", zap.Error(err))
		return
	}
	if purged > 0 {
		w.logger.Info("reset tokens purged", zap.Int64("count", purged))
	}
}
