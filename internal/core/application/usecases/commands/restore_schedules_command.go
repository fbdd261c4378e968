package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

// defaultRestoreLimit bounds how many recent orders startup restore examines.
const defaultRestoreLimit = 500

var (
	ErrRestoreSchedulesCommandIsNotConstructed = errors.New(
		"RestoreSchedulesCommand must be created via NewRestoreSchedulesCommand constructor",
	)
	ErrRestoreLimitIsInvalid = errors.New("restore limit must not be negative")
)

// RestoreSchedulesCommand requests that dispatch timers be re-armed from
// persisted orders after a restart.
type RestoreSchedulesCommand struct { //nolint:recvcheck //using for validation
	limit int

	guard guard.ConstructorGuard
}

// NewRestoreSchedulesCommand creates a schedule-restore command. A zero limit
// selects the default batch size.
func NewRestoreSchedulesCommand(limit int) (RestoreSchedulesCommand, error) {
	cmd := RestoreSchedulesCommand{
		guard: guard.NewConstructorGuard(),
	}

	if limit < 0 {
		return RestoreSchedulesCommand{}, ErrRestoreLimitIsInvalid
	}
	if limit == 0 {
		limit = defaultRestoreLimit
	}

	cmd.limit = limit
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RestoreSchedulesCommand) Validate() error {
	return c.guard.Validate(ErrRestoreSchedulesCommandIsNotConstructed)
}

// Limit returns the maximum number of recent orders to examine.
func (c RestoreSchedulesCommand) Limit() int {
	return c.limit
}
