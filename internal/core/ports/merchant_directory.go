package ports

import (
	"context"

	"dispatch/internal/core/domain/model/merchant"
)

// MerchantDirectory resolves pickup locations. The configured merchant address
// takes precedence over whatever address fields ride on the inbound order.
type MerchantDirectory interface {
	// Lookup returns the merchant profile for a store id.
	// Returns errs.ObjectNotFoundError when the store is unknown.
	Lookup(ctx context.Context, storeID string) (*merchant.Merchant, error)
}
