package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/benbjohnson/clock"
)

// ReconcileReport summarizes one reconciliation sweep.
type ReconcileReport struct {
	Checked int
	Updated int
	Failed  int
}

// ReconcileOrdersCommandHandler sweeps recent sent orders that are still
// in flight and folds the partner's terminal delivery states back into local
// status. Per-order failures are counted and logged, never propagated, so a
// single flaky delivery cannot stall the sweep.
type ReconcileOrdersCommandHandler struct {
	store  ports.OrderStore
	client ports.PartnerClient
	clk    clock.Clock
	logger *slog.Logger
}

// NewReconcileOrdersCommandHandler creates a handler for reconciliation sweeps.
func NewReconcileOrdersCommandHandler(
	store ports.OrderStore,
	client ports.PartnerClient,
	clk clock.Clock,
	logger *slog.Logger,
) ReconcileOrdersCommandHandler {
	return ReconcileOrdersCommandHandler{
		store:  store,
		client: client,
		clk:    clk,
		logger: logger.With("component", "reconciler"),
	}
}

// Handle runs one sweep. Only orders that were sent, carry a dispatch id and
// sit in a reconcilable status are polled.
func (h *ReconcileOrdersCommandHandler) Handle(
	ctx context.Context,
	cmd ReconcileOrdersCommand,
) (ReconcileReport, error) {
	if err := cmd.Validate(); err != nil {
		return ReconcileReport{}, err
	}

	orders, err := h.store.GetAll(ctx, cmd.Limit())
	if err != nil {
		return ReconcileReport{}, err
	}

	var report ReconcileReport
	for _, ord := range orders {
		if !ord.Sent() || ord.DispatchID() == "" || !ord.Status().IsReconcilable() {
			continue
		}
		report.Checked++

		result, err := h.client.GetStatus(ctx, ord.DispatchID())
		if err != nil {
			h.recordPollFailure(ctx, &report, ord.ID(), ord.DispatchID(), err)
			continue
		}

		target, ok := partner.ToOrderStatus(result.Status)
		if !ok {
			continue
		}

		observedAt := h.clk.Now()
		if err := h.store.UpdateStatus(ctx, ord.ID(), target, observedAt); err != nil {
			h.logger.WarnContext(ctx, "Reconciled status write failed",
				"order_id", ord.ID(), "status", target.String(), "error", err)
			report.Failed++
			continue
		}

		h.logger.InfoContext(ctx, "Order status reconciled",
			"order_id", ord.ID(),
			"dispatch_id", ord.DispatchID(),
			"partner_status", result.Status,
			"status", target.String())
		report.Updated++
	}

	h.logger.InfoContext(ctx, "Reconciliation sweep finished",
		"checked", report.Checked, "updated", report.Updated, "failed", report.Failed)

	return report, nil
}

// recordPollFailure classifies a failed status poll. A missing delivery is
// normal right after dispatch and is not counted as a failure; transient
// transport faults are expected on a periodic loop and logged quietly.
func (h *ReconcileOrdersCommandHandler) recordPollFailure(
	ctx context.Context,
	report *ReconcileReport,
	orderID, dispatchID string,
	err error,
) {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		h.logger.DebugContext(ctx, "Delivery not visible yet",
			"order_id", orderID, "dispatch_id", dispatchID)
	case errors.Is(err, errs.ErrTransportFailed):
		h.logger.DebugContext(ctx, "Status poll transport failure",
			"order_id", orderID, "dispatch_id", dispatchID, "error", err)
		report.Failed++
	default:
		h.logger.WarnContext(ctx, "Status poll failed",
			"order_id", orderID, "dispatch_id", dispatchID, "error", err)
		report.Failed++
	}
}
