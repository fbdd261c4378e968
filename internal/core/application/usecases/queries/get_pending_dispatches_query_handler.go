// Package queries contains the read-side operations of the dispatch pipeline.
// Query handlers read the database directly and return plain response values.
package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GetPendingDispatchesQueryHandler lists delivery orders still awaiting
// dispatch, oldest delivery time first so the most urgent work surfaces at
// the top.
type GetPendingDispatchesQueryHandler struct {
	db *gorm.DB
}

// NewGetPendingDispatchesQueryHandler creates a handler for pending-dispatch
// queries.
func NewGetPendingDispatchesQueryHandler(db *gorm.DB) GetPendingDispatchesQueryHandler {
	return GetPendingDispatchesQueryHandler{db: db}
}

// Handle executes the query. Terminal orders are excluded: a cancelled order
// that was never sent is not pending work.
func (h GetPendingDispatchesQueryHandler) Handle(
	ctx context.Context,
	query GetPendingDispatchesQuery,
) ([]GetPendingDispatchesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	pending := make([]GetPendingDispatchesQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			delivery_time,
			created_at
		FROM orders
		WHERE sent = false
		  AND type = ?
		  AND status NOT IN (?, ?)
		ORDER BY delivery_time ASC NULLS FIRST, created_at ASC
	`, order.TypeDelivery, order.Delivered, order.Cancelled).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resp GetPendingDispatchesQueryResponse
		var status int
		var deliveryTime *time.Time

		if err = rows.Scan(&resp.ID, &status, &deliveryTime, &resp.CreatedAt); err != nil {
			return nil, err
		}

		resp.Status = order.Status(status).String()
		resp.DeliveryTime = deliveryTime
		pending = append(pending, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return pending, nil
}
