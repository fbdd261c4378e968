package partner

import (
	"encoding/json"
	"strings"

	"dispatch/internal/core/domain/model/order"
)

// Normalized delivery statuses. Partner responses spell status under several
// aliases and vocabularies; everything is folded into these values.
const (
	StatusPending   = "pending"
	StatusCreated   = "created"
	StatusConfirmed = "confirmed"
	StatusEnroute   = "enroute"
	StatusPickedUp  = "picked_up"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
	StatusReturned  = "returned"

	// StatusExisting marks an idempotent create that hit an already existing
	// delivery (partner 409). Success-equivalent.
	StatusExisting = "existing"
)

// DispatchResult is the transient, normalized outcome of a partner call.
type DispatchResult struct {
	ID          string
	ExternalID  string
	Status      string
	TrackingURL string
	Raw         json.RawMessage
}

// resultEnvelope captures every known spelling of the fields that matter in a
// partner response. Which alias is populated varies by endpoint generation.
type resultEnvelope struct {
	DeliveryID       string `json:"delivery_id"`
	ID               string `json:"id"`
	SupportReference string `json:"support_reference"`

	ExternalDeliveryID string `json:"external_delivery_id"`
	ExternalID         string `json:"external_id"`

	DeliveryStatus string `json:"delivery_status"`
	Status         string `json:"status"`
	State          string `json:"state"`

	TrackingURL        string `json:"tracking_url"`
	DropoffTrackingURL string `json:"dropoff_tracking_url"`
}

// ParseResult decodes a partner response body into a normalized DispatchResult.
// Alias priority is fixed: delivery_id > id > support_reference for the id,
// delivery_status > status > state for the status. The raw body is retained
// for audit merging.
func ParseResult(body []byte) (*DispatchResult, error) {
	var env resultEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	return &DispatchResult{
		ID:          firstNonEmpty(env.DeliveryID, env.ID, env.SupportReference),
		ExternalID:  firstNonEmpty(env.ExternalDeliveryID, env.ExternalID),
		Status:      NormalizeStatus(firstNonEmpty(env.DeliveryStatus, env.Status, env.State)),
		TrackingURL: firstNonEmpty(env.TrackingURL, env.DropoffTrackingURL),
		Raw:         json.RawMessage(body),
	}, nil
}

// NormalizeStatus folds a raw partner status into the normalized vocabulary.
// Unrecognized values pass through lowercased so new partner states surface in
// logs instead of being flattened to unknown.
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return StatusPending
	case "quote", "created", "delivery_created":
		return StatusCreated
	case "confirmed", "accepted", "scheduled":
		return StatusConfirmed
	case "enroute_to_pickup", "arrived_at_pickup", "enroute_to_dropoff", "arrived_at_dropoff":
		return StatusEnroute
	case "picked_up", "pickup_complete":
		return StatusPickedUp
	case "delivered", "dropoff_complete", "delivery_complete":
		return StatusDelivered
	case "cancelled", "canceled", "delivery_cancelled", "delivery_canceled":
		return StatusCancelled
	case "returned", "delivery_returned":
		return StatusReturned
	}
	return s
}

// ToOrderStatus maps a normalized partner status to a local order status.
// Only terminal partner states feed back into local state; everything else
// returns ok=false and leaves the local status untouched.
func ToOrderStatus(normalized string) (order.Status, bool) {
	switch normalized {
	case StatusDelivered:
		return order.Delivered, true
	case StatusCancelled, StatusReturned:
		return order.Cancelled, true
	}
	return order.Unknown, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
