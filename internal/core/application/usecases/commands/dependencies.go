// Package commands contains the write-side operations of the dispatch
// pipeline. Each operation follows a consistent pattern: a validated command
// value, a handler holding its dependencies, and per-order error degradation
// so one order's failure never aborts a batch.
package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/scheduling"
)

// Narrow scheduler views consumed by command handlers. The concrete
// implementation is scheduling.DeliveryScheduler; handlers depend on these
// so tests can substitute fakes.
type (
	// OrderScheduler is the timing surface the coordinator drives.
	OrderScheduler interface {
		Schedule(ctx context.Context, ord *order.Order, meta scheduling.Metadata) (scheduling.Result, error)
		Cancel(orderID, reason string)
		Clear(orderID string)
	}

	// ScheduleRestorer re-arms schedules from persisted orders at startup.
	ScheduleRestorer interface {
		Restore(ctx context.Context, orders []*order.Order) int
	}

	// OrderSender performs an actual dispatch: translate, partner call,
	// persist. SendOrderCommandHandler is the production implementation.
	OrderSender interface {
		Handle(ctx context.Context, cmd SendOrderCommand) (SendResult, error)
	}
)
