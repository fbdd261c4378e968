// Package ports defines the contracts between the dispatch pipeline and its
// external collaborators: order persistence, the merchant directory, and the
// delivery partner's API.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/order"
)

// OrderStore is the persistence contract for order aggregates. The pipeline
// reads and mutates a subset of the order record through this interface only;
// full CRUD belongs to the upstream order system.
//
// No transaction spans an OrderStore write and a partner call. A partner call
// that succeeds while the local write fails is logged, not rolled back;
// reconciliation is the safety net for the resulting drift.
type OrderStore interface {
	// GetByID retrieves an order by its identifier.
	// Returns errs.ObjectNotFoundError when no such order exists.
	GetByID(ctx context.Context, id string) (*order.Order, error)

	// GetAll retrieves up to limit orders, newest first.
	// Used by startup restore to re-arm schedules.
	GetAll(ctx context.Context, limit int) ([]*order.Order, error)

	// UpdateStatus applies a status observed at observedAt. The write is
	// conditional: it only lands when observedAt is not older than the stored
	// status timestamp (last write wins), so a late reconciliation result
	// cannot clobber a fresher inbound update. A stale write is a silent no-op.
	UpdateStatus(ctx context.Context, id string, status order.Status, observedAt time.Time) error

	// MarkSent records a successful dispatch: the sent flag, the partner
	// dispatch id, the tracking URL, and the merged audit blob are written
	// together. The write lands at most once per order; a repeat returns
	// errs.ConflictError.
	MarkSent(ctx context.Context, id, dispatchID, trackingURL string, raw json.RawMessage) error

	// Upsert inserts or refreshes the pipeline's slice of an order record.
	Upsert(ctx context.Context, aggregate *order.Order) error
}
