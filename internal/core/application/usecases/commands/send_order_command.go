package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
	"dispatch/internal/scheduling"
)

var (
	ErrSendOrderCommandIsNotConstructed = errors.New(
		"SendOrderCommand must be created via NewSendOrderCommand constructor",
	)
	ErrOrderIsRequired = errors.New("order is required")
)

// SendOrderCommand requests an actual dispatch of one order: translation,
// the partner create-delivery call, and persistence of the outcome.
// Metadata records who asked (inbound event, fired timer, restore, fallback)
// for logging and audit.
type SendOrderCommand struct { //nolint:recvcheck //using for validation
	ord  *order.Order
	meta scheduling.Metadata

	guard guard.ConstructorGuard
}

// NewSendOrderCommand creates a command to dispatch an order now.
// The order must be a constructed aggregate.
func NewSendOrderCommand(ord *order.Order, meta scheduling.Metadata) (SendOrderCommand, error) {
	cmd := SendOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if ord == nil {
		return SendOrderCommand{}, ErrOrderIsRequired
	}
	if err := ord.Validate(); err != nil {
		return SendOrderCommand{}, err
	}

	cmd.ord = ord
	cmd.meta = meta
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c SendOrderCommand) Validate() error {
	return c.guard.Validate(ErrSendOrderCommandIsNotConstructed)
}

// Order returns the order to dispatch.
func (c SendOrderCommand) Order() *order.Order {
	return c.ord
}

// Metadata returns the source/reason metadata travelling with the dispatch.
func (c SendOrderCommand) Metadata() scheduling.Metadata {
	return c.meta
}
