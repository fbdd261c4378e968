package scheduling

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/order"

	"github.com/benbjohnson/clock"
)

// Status classifies the outcome of a Schedule call.
type Status string

const (
	// StatusScheduled means a timer was armed for a future dispatch.
	StatusScheduled Status = "scheduled"

	// StatusDispatched means the order qualified for immediate dispatch and
	// the sink was invoked synchronously.
	StatusDispatched Status = "dispatched"

	// StatusSkipped means type or sent gating disqualified the order.
	StatusSkipped Status = "skipped"
)

// Metadata records why and on whose behalf an entry exists. It travels with
// the entry into the dispatch sink for logging and audit.
type Metadata struct {
	Source string
	Reason string
}

// Result reports what Schedule decided for an order.
type Result struct {
	Status      Status
	ScheduledAt time.Time
	DeliveryAt  time.Time
	Reason      string
}

// DispatchSink receives orders when their dispatch moment arrives, either
// synchronously for immediate orders or from a fired timer. Implementations
// own translation, the partner call and persistence; the scheduler owns only
// timing. Sink failures are logged by the sink, not retried here.
type DispatchSink interface {
	DispatchNow(ctx context.Context, ord *order.Order, meta Metadata) error
}

// entry is a pending timer for one order. At most one entry exists per order
// id; scheduling the same id again replaces the previous entry (last write
// wins).
type entry struct {
	orderID     string
	scheduledAt time.Time
	deliveryAt  time.Time
	timer       *clock.Timer
	ord         *order.Order
	meta        Metadata
}

// DeliveryScheduler decides when each order is dispatched. Orders whose
// delivery moment is far enough out get a timer armed bufferAhead of it;
// orders without a usable delivery time dispatch immediately.
//
// Per-order lifecycle: Idle (no entry) -> Scheduled (timer armed) ->
// Dispatching (timer fired, sink running) -> Idle. The entry is removed
// before the sink is invoked, so a re-schedule arriving while a dispatch is
// in flight arms a fresh timer instead of colliding with the running one.
//
// Cancel and Clear only prevent a future fire; a dispatch already on the
// network is not interrupted and its completion still updates stored state.
type DeliveryScheduler struct {
	sink   DispatchSink
	buffer time.Duration
	clk    clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// NewDeliveryScheduler creates a scheduler dispatching buffer ahead of each
// order's delivery time. The clock is injected so tests run on virtual time.
func NewDeliveryScheduler(sink DispatchSink, buffer time.Duration, clk clock.Clock, logger *slog.Logger) *DeliveryScheduler {
	return &DeliveryScheduler{
		sink:    sink,
		buffer:  buffer,
		clk:     clk,
		logger:  logger.With("component", "delivery_scheduler"),
		entries: make(map[string]*entry),
	}
}

// Schedule decides immediate versus buffered dispatch for an order.
//
// Without a delivery time, or with one inside the buffer window, the order is
// classified immediate: gating (non-delivery type, already sent) yields
// StatusSkipped, otherwise the sink runs synchronously and the result is
// StatusDispatched. A delivery time beyond the window arms a timer at
// deliveryTime minus buffer, replacing any previous entry for the same id.
func (s *DeliveryScheduler) Schedule(ctx context.Context, ord *order.Order, meta Metadata) (Result, error) {
	if err := ord.Validate(); err != nil {
		return Result{}, err
	}

	now := s.clk.Now()
	deliveryAt := ord.DeliveryTime()

	if deliveryAt == nil || !deliveryAt.After(now.Add(s.buffer)) {
		return s.dispatchImmediately(ctx, ord, meta, deliveryAt)
	}

	scheduledAt := deliveryAt.Add(-s.buffer)

	s.mu.Lock()
	if previous, ok := s.entries[ord.ID()]; ok {
		previous.timer.Stop()
		delete(s.entries, ord.ID())
		s.logger.InfoContext(ctx, "Replacing pending schedule",
			"order_id", ord.ID(), "previous_scheduled_at", previous.scheduledAt)
	}

	e := &entry{
		orderID:     ord.ID(),
		scheduledAt: scheduledAt,
		deliveryAt:  *deliveryAt,
		ord:         ord,
		meta:        meta,
	}
	e.timer = s.clk.AfterFunc(scheduledAt.Sub(now), func() {
		s.fire(ord.ID())
	})
	s.entries[ord.ID()] = e
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Dispatch scheduled",
		"order_id", ord.ID(),
		"scheduled_at", scheduledAt,
		"delivery_at", *deliveryAt,
		"source", meta.Source)

	return Result{Status: StatusScheduled, ScheduledAt: scheduledAt, DeliveryAt: *deliveryAt}, nil
}

func (s *DeliveryScheduler) dispatchImmediately(
	ctx context.Context,
	ord *order.Order,
	meta Metadata,
	deliveryAt *time.Time,
) (Result, error) {
	// Last write wins here too: an armed timer for this id is superseded by
	// the immediate classification and must not fire later.
	if s.remove(ord.ID()) {
		s.logger.InfoContext(ctx, "Replacing pending schedule with immediate dispatch",
			"order_id", ord.ID())
	}

	result := Result{Status: StatusDispatched}
	if deliveryAt != nil {
		result.DeliveryAt = *deliveryAt
	}

	if !ord.IsDelivery() {
		result.Status = StatusSkipped
		result.Reason = "not a delivery order"
		return result, nil
	}

	if ord.Sent() {
		result.Status = StatusSkipped
		result.Reason = "already sent"
		return result, nil
	}

	if err := s.sink.DispatchNow(ctx, ord, meta); err != nil {
		return Result{}, err
	}

	return result, nil
}

// fire runs on timer expiry. The entry is removed before the sink is invoked
// so the in-flight dispatch can never be double-armed by a concurrent
// re-schedule of the same id.
func (s *DeliveryScheduler) fire(orderID string) {
	s.mu.Lock()
	e, ok := s.entries[orderID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.entries, orderID)
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.InfoContext(ctx, "Schedule timer fired", "order_id", orderID, "delivery_at", e.deliveryAt)

	if err := s.sink.DispatchNow(ctx, e.ord, e.meta); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled dispatch failed", "order_id", orderID, "error", err)
	}
}

// Cancel removes a pending entry because the order no longer needs dispatch.
// Idempotent: unknown ids are a no-op.
func (s *DeliveryScheduler) Cancel(orderID, reason string) {
	if s.remove(orderID) {
		s.logger.Info("Pending schedule cancelled", "order_id", orderID, "reason", reason)
	}
}

// Clear releases any entry left for an order after a completed dispatch.
// Idempotent: unknown ids are a no-op.
func (s *DeliveryScheduler) Clear(orderID string) {
	if s.remove(orderID) {
		s.logger.Info("Schedule entry released", "order_id", orderID)
	}
}

func (s *DeliveryScheduler) remove(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[orderID]
	if !ok {
		return false
	}

	e.timer.Stop()
	delete(s.entries, orderID)
	return true
}

// Pending reports whether an entry is currently armed for the order id.
func (s *DeliveryScheduler) Pending(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[orderID]
	return ok
}

// Stop cancels all outstanding timers. Called on shutdown.
func (s *DeliveryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}

	s.logger.Info("Delivery scheduler stopped")
}

// Restore re-arms schedules from persisted orders after a restart. Orders
// already sent, of non-delivery type, or lacking a raw snapshot are skipped.
// One order's failure is logged and does not abort the rest. Returns the
// number of orders re-armed or dispatched.
func (s *DeliveryScheduler) Restore(ctx context.Context, orders []*order.Order) int {
	restored := 0

	for _, ord := range orders {
		if ord.Sent() || !ord.IsDelivery() || !ord.HasSnapshot() {
			continue
		}

		result, err := s.Schedule(ctx, ord, Metadata{Source: "restore"})
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to restore schedule", "order_id", ord.ID(), "error", err)
			continue
		}

		if result.Status == StatusScheduled || result.Status == StatusDispatched {
			restored++
		}
	}

	s.logger.InfoContext(ctx, "Schedules restored", "count", restored, "examined", len(orders))
	return restored
}
