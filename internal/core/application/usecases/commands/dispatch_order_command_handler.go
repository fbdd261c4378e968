package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/scheduling"

	"github.com/google/uuid"
)

// Dispatch outcome statuses reported to callers.
const (
	OutcomeScheduled  = "scheduled"
	OutcomeDispatched = "dispatched"
	OutcomeSkipped    = "skipped"
	OutcomeExisting   = "existing"
	OutcomeFailed     = "failed"
)

// DispatchOutcome reports what the gate decided for one inbound order.
type DispatchOutcome struct {
	OrderID     string
	Status      string
	DispatchID  string
	TrackingURL string
	ScheduledAt time.Time
	DeliveryAt  time.Time
	Reason      string
}

// DispatchOrderCommandHandler is the gate in front of the scheduler: it
// resolves the authoritative order record, applies the idempotency, type and
// terminal-status checks, and hands qualifying orders to the scheduler. When
// the scheduling path fails it falls back to a direct send so a scheduler
// fault never loses an order.
type DispatchOrderCommandHandler struct {
	store     ports.OrderStore
	scheduler OrderScheduler
	sender    OrderSender
	logger    *slog.Logger
}

// NewDispatchOrderCommandHandler creates a handler for the dispatch gate.
func NewDispatchOrderCommandHandler(
	store ports.OrderStore,
	scheduler OrderScheduler,
	sender OrderSender,
	logger *slog.Logger,
) DispatchOrderCommandHandler {
	return DispatchOrderCommandHandler{
		store:     store,
		scheduler: scheduler,
		sender:    sender,
		logger:    logger.With("component", "dispatch_gate"),
	}
}

// Handle routes one inbound order. The returned error covers only invalid
// commands and unbuildable orders; operational failures degrade into a
// DispatchOutcome with status "failed" so batch callers keep going.
func (h *DispatchOrderCommandHandler) Handle(
	ctx context.Context,
	cmd DispatchOrderCommand,
) (DispatchOutcome, error) {
	if err := cmd.Validate(); err != nil {
		return DispatchOutcome{}, err
	}

	ord, meta, err := h.resolveOrder(ctx, cmd)
	if err != nil {
		return DispatchOutcome{}, err
	}

	outcome := DispatchOutcome{OrderID: ord.ID()}

	switch {
	case ord.Sent():
		h.scheduler.Cancel(ord.ID(), "already sent")
		outcome.Status = OutcomeExisting
		outcome.DispatchID = ord.DispatchID()
		outcome.TrackingURL = ord.TrackingURL()
		return outcome, nil

	case !ord.IsDelivery():
		h.scheduler.Cancel(ord.ID(), "not a delivery order")
		outcome.Status = OutcomeSkipped
		outcome.Reason = "not a delivery order"
		return outcome, nil

	case ord.Status().IsTerminal():
		h.scheduler.Cancel(ord.ID(), "order is terminal")
		outcome.Status = OutcomeSkipped
		outcome.Reason = "order is terminal"
		return outcome, nil
	}

	// An id-less event is never persisted, so an armed timer for it would not
	// survive a restart. It dispatches now regardless of delivery time.
	if cmd.OrderID() == "" {
		return h.sendDirectly(ctx, ord, meta), nil
	}

	res, err := h.scheduler.Schedule(ctx, ord, meta)
	if err != nil {
		h.logger.WarnContext(ctx, "Scheduling failed, attempting direct send",
			"order_id", ord.ID(), "error", err)
		return h.sendDirectly(ctx, ord, scheduling.Metadata{
			Source: meta.Source,
			Reason: "scheduler-failure",
		}), nil
	}

	switch res.Status {
	case scheduling.StatusScheduled:
		outcome.Status = OutcomeScheduled
		outcome.ScheduledAt = res.ScheduledAt
		outcome.DeliveryAt = res.DeliveryAt
	case scheduling.StatusDispatched:
		// The sink mutated the aggregate in place on the synchronous path.
		outcome.Status = OutcomeDispatched
		outcome.DispatchID = ord.DispatchID()
		outcome.TrackingURL = ord.TrackingURL()
		outcome.DeliveryAt = res.DeliveryAt
	default:
		outcome.Status = OutcomeSkipped
		outcome.Reason = res.Reason
	}

	return outcome, nil
}

// resolveOrder gives the stored record priority over the inbound event so
// sent-state recorded by an earlier dispatch survives redelivered events.
// An event without an order id dispatches once under a generated id and is
// never persisted.
func (h *DispatchOrderCommandHandler) resolveOrder(
	ctx context.Context,
	cmd DispatchOrderCommand,
) (*order.Order, scheduling.Metadata, error) {
	meta := scheduling.Metadata{Source: cmd.Source()}

	if cmd.OrderID() == "" {
		meta.Reason = "missing-order-id"
		ord, err := order.NewOrder(uuid.NewString(), cmd.OrderType(), cmd.Raw(), cmd.DeliveryTime())
		return ord, meta, err
	}

	stored, err := h.store.GetByID(ctx, cmd.OrderID())
	if err == nil {
		return stored, meta, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.WarnContext(ctx, "Order lookup failed, dispatching from event",
			"order_id", cmd.OrderID(), "error", err)
	}

	ord, err := order.NewOrder(cmd.OrderID(), cmd.OrderType(), cmd.Raw(), cmd.DeliveryTime())
	if err != nil {
		return nil, meta, err
	}

	if upErr := h.store.Upsert(ctx, ord); upErr != nil {
		h.logger.WarnContext(ctx, "Could not persist inbound order",
			"order_id", ord.ID(), "error", upErr)
	}

	return ord, meta, nil
}

// sendDirectly dispatches without going through the scheduler: the id-less
// event path and the last-resort path when the scheduler could not take the
// order. Its failure is an outcome, not an error.
func (h *DispatchOrderCommandHandler) sendDirectly(
	ctx context.Context,
	ord *order.Order,
	meta scheduling.Metadata,
) DispatchOutcome {
	outcome := DispatchOutcome{OrderID: ord.ID()}

	sendCmd, err := NewSendOrderCommand(ord, meta)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	result, err := h.sender.Handle(ctx, sendCmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "Direct send failed",
			"order_id", ord.ID(), "error", err)
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	// A timer armed by an earlier event for this id may still be pending.
	h.scheduler.Clear(ord.ID())

	outcome.Status = OutcomeDispatched
	outcome.DispatchID = result.DispatchID
	outcome.TrackingURL = result.TrackingURL
	return outcome
}
