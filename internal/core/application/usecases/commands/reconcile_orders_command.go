package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

// defaultReconcileLimit bounds one reconciliation sweep when the caller does
// not choose a batch size.
const defaultReconcileLimit = 100

var (
	ErrReconcileOrdersCommandIsNotConstructed = errors.New(
		"ReconcileOrdersCommand must be created via NewReconcileOrdersCommand constructor",
	)
	ErrReconcileLimitIsInvalid = errors.New("reconcile limit must not be negative")
)

// ReconcileOrdersCommand requests one sweep of in-flight orders against the
// partner's view of their deliveries.
type ReconcileOrdersCommand struct { //nolint:recvcheck //using for validation
	limit int

	guard guard.ConstructorGuard
}

// NewReconcileOrdersCommand creates a reconciliation sweep command. A zero
// limit selects the default batch size.
func NewReconcileOrdersCommand(limit int) (ReconcileOrdersCommand, error) {
	cmd := ReconcileOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if limit < 0 {
		return ReconcileOrdersCommand{}, ErrReconcileLimitIsInvalid
	}
	if limit == 0 {
		limit = defaultReconcileLimit
	}

	cmd.limit = limit
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReconcileOrdersCommand) Validate() error {
	return c.guard.Validate(ErrReconcileOrdersCommandIsNotConstructed)
}

// Limit returns the maximum number of recent orders to examine.
func (c ReconcileOrdersCommand) Limit() int {
	return c.limit
}
