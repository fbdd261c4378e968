package ports

import (
	"context"

	"dispatch/internal/core/domain/model/partner"
)

// PartnerClient performs the delivery-partner network calls. Implementations
// classify partner errors into the errs taxonomy:
//
//   - 409 duplicate on create is not an error; the result carries
//     partner.StatusExisting and whatever stored info the partner returned
//   - 401 yields errs.AuthError with a credential-shape diagnostic, no retry
//   - 404 yields errs.ObjectNotFoundError, benign for status polls
//   - network failures, timeouts and 5xx yield errs.TransportError
//   - remaining statuses surface as *DispatchAPIError with status and body
type PartnerClient interface {
	// CreateDelivery submits a courier dispatch request.
	CreateDelivery(ctx context.Context, payload partner.DispatchPayload) (*partner.DispatchResult, error)

	// GetStatus fetches the current delivery state by dispatch id or external
	// id, trying the known endpoint shapes in fixed priority order and
	// returning the first success.
	GetStatus(ctx context.Context, id string) (*partner.DispatchResult, error)

	// Cancel asks the partner to cancel an in-flight delivery.
	Cancel(ctx context.Context, id, reason string) (*partner.DispatchResult, error)

	// MarkReadyForPickup tells the partner the order is ready at the merchant.
	MarkReadyForPickup(ctx context.Context, id string) (*partner.DispatchResult, error)

	// TestConnection performs one lightweight authenticated call. Only a 401
	// is a hard failure; 403/404 imply valid credentials.
	TestConnection(ctx context.Context) error
}
