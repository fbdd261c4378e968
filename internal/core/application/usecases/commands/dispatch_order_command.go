package commands

import (
	"encoding/json"
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var (
	ErrDispatchOrderCommandIsNotConstructed = errors.New(
		"DispatchOrderCommand must be created via NewDispatchOrderCommand constructor",
	)
	ErrOrderPayloadIsRequired = errors.New("order payload is required")
)

// DispatchOrderCommand requests that an inbound order be routed through the
// dispatch gate: idempotency and type checks, then scheduling or immediate
// dispatch. OrderID may be empty; the handler then dispatches under a
// generated id without persisting.
type DispatchOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      string
	orderType    string
	raw          json.RawMessage
	deliveryTime *time.Time
	source       string

	guard guard.ConstructorGuard
}

// NewDispatchOrderCommand creates a command from an inbound order event.
func NewDispatchOrderCommand(
	orderID string,
	orderType string,
	raw json.RawMessage,
	deliveryTime *time.Time,
	source string,
) (DispatchOrderCommand, error) {
	cmd := DispatchOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if len(raw) == 0 {
		return DispatchOrderCommand{}, ErrOrderPayloadIsRequired
	}

	cmd.orderID = orderID
	cmd.orderType = orderType
	cmd.raw = raw
	cmd.deliveryTime = deliveryTime
	cmd.source = source
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c DispatchOrderCommand) Validate() error {
	return c.guard.Validate(ErrDispatchOrderCommandIsNotConstructed)
}

// OrderID returns the inbound order's id, empty when the event carried none.
func (c DispatchOrderCommand) OrderID() string {
	return c.orderID
}

// OrderType returns the inbound order's type.
func (c DispatchOrderCommand) OrderType() string {
	return c.orderType
}

// Raw returns the inbound order snapshot.
func (c DispatchOrderCommand) Raw() json.RawMessage {
	return c.raw
}

// DeliveryTime returns the requested delivery time, nil for as-soon-as-possible.
func (c DispatchOrderCommand) DeliveryTime() *time.Time {
	return c.deliveryTime
}

// Source identifies where the event came from, for logging and audit.
func (c DispatchOrderCommand) Source() string {
	return c.source
}
