package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order as the dispatch pipeline
// sees it. Local statuses advance from inbound webhook events and from
// reconciliation against the partner's authoritative state.
//
// State transitions:
//
//	Pending ──> Accepted ──> Confirmed ──> ReadyForPickup
//	    │           │            │               │
//	    └───────────┴────────────┴───────────────┴──> Delivered | Cancelled
//
// Delivered and Cancelled are terminal: no further transitions are allowed,
// and orders in either state are never dispatched. Whether a courier job was
// created is tracked by the order's sent flag, not by status.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Pending is the initial status of an inbound order awaiting confirmation.
	Pending

	// Accepted indicates the merchant accepted the order.
	Accepted

	// Confirmed indicates the order is confirmed and will need a courier.
	Confirmed

	// ReadyForPickup indicates the kitchen marked the order ready.
	ReadyForPickup

	// Delivered indicates the partner completed the delivery. Terminal.
	Delivered

	// Cancelled indicates the order was cancelled locally or remotely. Terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "unknown",
		Pending:        "pending",
		Accepted:       "accepted",
		Confirmed:      "confirmed",
		ReadyForPickup: "ready_for_pickup",
		Delivered:      "delivered",
		Cancelled:      "cancelled",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:        "pending",
		Accepted:       "accepted",
		Confirmed:      "confirmed",
		ReadyForPickup: "ready_for_pickup",
		Delivered:      "delivered",
		Cancelled:      "cancelled",
	}
}

// ParseStatus converts a persisted or inbound status string to a Status.
// Unrecognized strings map to Pending so an unknown upstream vocabulary never
// blocks ingestion.
func ParseStatus(s string) Status {
	for status, str := range getValidStatusStrings() {
		if str == s {
			return status
		}
	}
	return Pending
}

// Validate checks that the Status value is one of the defined states.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValidationErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire-format name of the status.
// Implements fmt.Stringer and is safe on invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status allows no further transitions.
// Terminal orders are never dispatched and are skipped by reconciliation.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsReconcilable reports whether an order in this status should be polled
// against the partner for missed updates.
func (s Status) IsReconcilable() bool {
	return s == Pending || s == Accepted || s == Confirmed
}

// Transition validates a move from the current status to target.
// Any non-terminal status may move to any valid status; terminal statuses
// reject every transition.
func (s Status) Transition(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}

	if s.IsTerminal() {
		return 0, errs.NewValidationErrorWithCause(
			"status",
			fmt.Errorf("%s is terminal and cannot transition to %s", s, target),
		)
	}

	return target, nil
}
