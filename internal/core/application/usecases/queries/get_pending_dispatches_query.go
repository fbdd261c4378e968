package queries

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var ErrGetPendingDispatchesQueryIsNotConstructed = errors.New(
	"GetPendingDispatchesQuery must be created via NewGetPendingDispatchesQuery constructor",
)

// GetPendingDispatchesQuery retrieves delivery orders that have not been
// handed to the partner yet, for monitoring and operator tooling.
type GetPendingDispatchesQuery struct {
	guard guard.ConstructorGuard
}

// NewGetPendingDispatchesQuery creates a query for not-yet-sent deliveries.
func NewGetPendingDispatchesQuery() GetPendingDispatchesQuery {
	return GetPendingDispatchesQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetPendingDispatchesQuery) Validate() error {
	return q.guard.Validate(ErrGetPendingDispatchesQueryIsNotConstructed)
}

// GetPendingDispatchesQueryResponse is one delivery order awaiting dispatch.
type GetPendingDispatchesQueryResponse struct {
	ID           string
	Status       string
	DeliveryTime *time.Time
	CreatedAt    time.Time
}
