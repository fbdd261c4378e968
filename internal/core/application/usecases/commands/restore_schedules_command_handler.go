package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

// RestoreSchedulesCommandHandler re-arms dispatch timers from persisted
// orders after a restart. Unsent delivery orders flow back through the
// scheduler, which re-applies its own gating and window logic; everything
// else is ignored.
type RestoreSchedulesCommandHandler struct {
	store    ports.OrderStore
	restorer ScheduleRestorer
	logger   *slog.Logger
}

// NewRestoreSchedulesCommandHandler creates a handler for startup restore.
func NewRestoreSchedulesCommandHandler(
	store ports.OrderStore,
	restorer ScheduleRestorer,
	logger *slog.Logger,
) RestoreSchedulesCommandHandler {
	return RestoreSchedulesCommandHandler{
		store:    store,
		restorer: restorer,
		logger:   logger.With("component", "schedule_restore"),
	}
}

// Handle loads recent orders and hands them to the scheduler. Returns the
// number of schedules re-armed.
func (h *RestoreSchedulesCommandHandler) Handle(
	ctx context.Context,
	cmd RestoreSchedulesCommand,
) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	orders, err := h.store.GetAll(ctx, cmd.Limit())
	if err != nil {
		return 0, err
	}

	restored := h.restorer.Restore(ctx, orders)
	h.logger.InfoContext(ctx, "Schedules restored",
		"examined", len(orders), "restored", restored)

	return restored, nil
}
