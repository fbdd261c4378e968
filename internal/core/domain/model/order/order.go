package order

import (
	"encoding/json"
	"errors"
	"time"

	"dispatch/internal/pkg/errs"
)

// TypeDelivery is the only order type the dispatch pipeline acts on.
// Orders of any other type (pickup, dine-in) are gated out before dispatch.
const TypeDelivery = "delivery"

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through NewOrder or RestoreOrder. This ensures all orders are validated.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

// ErrOrderAlreadySent is returned by MarkSent when the order already produced a
// successful dispatch. Callers treat it as a benign short-circuit, not a failure.
var ErrOrderAlreadySent = errors.New("order is already marked sent")

// Order is the aggregate root of the dispatch pipeline. It carries the subset
// of the inbound order the pipeline reads and mutates: identity, type, status,
// the raw inbound snapshot used to rebuild dispatch payloads after a restart,
// the requested delivery time, and the outcome of a successful dispatch.
//
// Order maintains these invariants:
//   - id and orderType are never blank
//   - the sent flag flips to true at most once, together with the dispatch id
//   - terminal statuses accept no further transitions
//   - a status change carries the moment it was observed, enabling
//     last-write-wins between reconciliation and inbound events
type Order struct {
	id              string
	orderType       string
	status          Status
	raw             json.RawMessage
	deliveryTime    *time.Time
	sent            bool
	dispatchID      string
	trackingURL     string
	statusChangedAt time.Time

	isConstructed bool
}

// NewOrder creates an order in Pending status from an inbound event.
// raw is the full inbound payload; it is kept verbatim so the dispatch payload
// can be rebuilt during startup restore. deliveryTime may be nil for
// dispatch-immediately orders.
func NewOrder(id, orderType string, raw json.RawMessage, deliveryTime *time.Time) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setType(orderType),
	); err != nil {
		return nil, err
	}

	o.raw = raw
	o.deliveryTime = deliveryTime
	return o, nil
}

// RestoreOrder reconstructs an order from persistence without re-running the
// inbound defaults. Used by the repository layer only.
func RestoreOrder(
	id, orderType string,
	status Status,
	raw json.RawMessage,
	deliveryTime *time.Time,
	sent bool,
	dispatchID, trackingURL string,
	statusChangedAt time.Time,
) (*Order, error) {
	o := &Order{
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setType(orderType),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	o.status = status
	o.raw = raw
	o.deliveryTime = deliveryTime
	o.sent = sent
	o.dispatchID = dispatchID
	o.trackingURL = trackingURL
	o.statusChangedAt = statusChangedAt
	return o, nil
}

// Validate ensures the Order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ID returns the order's identifier, assigned by the upstream order system.
func (o *Order) ID() string {
	return o.id
}

// Type returns the order type ("delivery", "pickup", ...).
func (o *Order) Type() string {
	return o.orderType
}

// IsDelivery reports whether the order requires courier dispatch.
func (o *Order) IsDelivery() bool {
	return o.orderType == TypeDelivery
}

// Status returns the order's current local status.
func (o *Order) Status() Status {
	return o.status
}

// StatusChangedAt returns the moment the current status was observed.
func (o *Order) StatusChangedAt() time.Time {
	return o.statusChangedAt
}

// Raw returns the inbound payload snapshot.
func (o *Order) Raw() json.RawMessage {
	return o.raw
}

// HasSnapshot reports whether a raw inbound snapshot is available.
// Orders without one cannot be replayed after a restart.
func (o *Order) HasSnapshot() bool {
	return len(o.raw) > 0
}

// DeliveryTime returns the requested delivery moment, nil when absent.
func (o *Order) DeliveryTime() *time.Time {
	return o.deliveryTime
}

// Sent reports whether a courier job was already created for this order.
// This flag is the authoritative idempotency signal for the whole pipeline.
func (o *Order) Sent() bool {
	return o.sent
}

// DispatchID returns the partner's delivery job identifier, empty until sent.
func (o *Order) DispatchID() string {
	return o.dispatchID
}

// TrackingURL returns the partner tracking link, empty until known.
func (o *Order) TrackingURL() string {
	return o.trackingURL
}

// MarkSent records a successful dispatch. It may succeed at most once per
// order; repeated calls return ErrOrderAlreadySent so duplicate attempts are
// detected and short-circuited instead of creating a second courier job.
func (o *Order) MarkSent(dispatchID, trackingURL string) error {
	if o.sent {
		return ErrOrderAlreadySent
	}

	if dispatchID == "" {
		return errs.NewValidationError("dispatch id")
	}

	o.sent = true
	o.dispatchID = dispatchID
	o.trackingURL = trackingURL
	return nil
}

// ChangeStatus applies a status observed at the given moment. Observations
// older than the currently recorded one are ignored (last write wins by
// timestamp), so a late reconciliation poll cannot clobber a fresher inbound
// update. Transitions out of a terminal status are rejected.
func (o *Order) ChangeStatus(target Status, observedAt time.Time) error {
	if observedAt.Before(o.statusChangedAt) {
		return nil
	}

	if target == o.status {
		o.statusChangedAt = observedAt
		return nil
	}

	next, err := o.status.Transition(target)
	if err != nil {
		return err
	}

	o.status = next
	o.statusChangedAt = observedAt
	return nil
}

func (o *Order) setID(id string) error {
	if id == "" {
		return errs.NewValidationError("order id")
	}
	o.id = id
	return nil
}

func (o *Order) setType(orderType string) error {
	if orderType == "" {
		return errs.NewValidationError("order type")
	}
	o.orderType = orderType
	return nil
}
