package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// ReconciliationJob runs the reconciliation sweep on a fixed interval, with
// one extra pass shortly after startup so downtime drift is corrected without
// waiting a full interval.
type ReconciliationJob struct {
	handler      commands.ReconcileOrdersCommandHandler
	interval     time.Duration
	initialDelay time.Duration
	batchLimit   int
	cron         *cron.Cron
	logger       *slog.Logger

	mu           sync.Mutex
	initialTimer *time.Timer
}

// NewReconciliationJob creates the periodic reconciliation job.
func NewReconciliationJob(
	handler commands.ReconcileOrdersCommandHandler,
	interval time.Duration,
	initialDelay time.Duration,
	batchLimit int,
	logger *slog.Logger,
) *ReconciliationJob {
	return &ReconciliationJob{
		handler:      handler,
		interval:     interval,
		initialDelay: initialDelay,
		batchLimit:   batchLimit,
		cron:         cron.New(),
		logger:       logger.With("component", "reconciliation_job"),
	}
}

// Start arms the startup pass and begins the periodic schedule.
func (j *ReconciliationJob) Start() error {
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), j.runSweep)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.initialTimer = time.AfterFunc(j.initialDelay, j.runSweep)
	j.mu.Unlock()

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Reconciliation job started",
		"interval", j.interval.String(), "initial_delay", j.initialDelay.String())
	return nil
}

// Stop cancels the startup pass and the periodic schedule. A sweep already
// in flight finishes on its own.
func (j *ReconciliationJob) Stop() {
	j.mu.Lock()
	if j.initialTimer != nil {
		j.initialTimer.Stop()
		j.initialTimer = nil
	}
	j.mu.Unlock()

	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Reconciliation job stopped")
}

func (j *ReconciliationJob) runSweep() {
	ctx := context.Background()

	cmd, err := commands.NewReconcileOrdersCommand(j.batchLimit)
	if err != nil {
		j.logger.ErrorContext(ctx, "Could not build reconcile command", "error", err)
		return
	}

	if _, err := j.handler.Handle(ctx, cmd); err != nil {
		j.logger.ErrorContext(ctx, "Reconciliation sweep failed", "error", err)
	}
}
