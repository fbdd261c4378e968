package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/merchant"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/benbjohnson/clock"
)

// trackingBackoff is the wait before each retry of the status fetch when a
// successful dispatch came back without a tracking URL.
var trackingBackoff = []time.Duration{1 * time.Second, 2 * time.Second}

// SendResult is the outcome of a completed dispatch attempt.
type SendResult struct {
	DispatchID  string
	TrackingURL string
	Status      string
}

// SendOrderCommandHandler performs the actual dispatch of one order:
// merchant lookup, translation, the partner create-delivery call, the
// tracking-URL re-fetch, and persistence of the outcome.
//
// It is the production scheduling.DispatchSink: the scheduler invokes it both
// synchronously for immediate orders and from fired timers.
type SendOrderCommandHandler struct {
	translator services.OrderTranslator
	merchants  ports.MerchantDirectory
	client     ports.PartnerClient
	store      ports.OrderStore
	clk        clock.Clock
	logger     *slog.Logger
}

// NewSendOrderCommandHandler creates a handler for dispatch execution.
func NewSendOrderCommandHandler(
	translator services.OrderTranslator,
	merchants ports.MerchantDirectory,
	client ports.PartnerClient,
	store ports.OrderStore,
	clk clock.Clock,
	logger *slog.Logger,
) SendOrderCommandHandler {
	return SendOrderCommandHandler{
		translator: translator,
		merchants:  merchants,
		client:     client,
		store:      store,
		clk:        clk,
		logger:     logger.With("component", "order_sender"),
	}
}

// Handle dispatches the order. Already-sent orders short-circuit to their
// recorded outcome; this guard runs here as well as in the coordinator so a
// fired timer can never double-dispatch either.
//
// A partner call that succeeds while the local write fails is logged and
// still reported as success; reconciliation covers the resulting drift.
func (h *SendOrderCommandHandler) Handle(ctx context.Context, cmd SendOrderCommand) (SendResult, error) {
	if err := cmd.Validate(); err != nil {
		return SendResult{}, err
	}

	ord := cmd.Order()
	meta := cmd.Metadata()

	if ord.Sent() {
		return SendResult{
			DispatchID:  ord.DispatchID(),
			TrackingURL: ord.TrackingURL(),
			Status:      partner.StatusExisting,
		}, nil
	}

	payload, err := h.translator.Translate(ord, h.lookupMerchant(ctx, ord.Raw()))
	if err != nil {
		return SendResult{}, err
	}

	result, err := h.client.CreateDelivery(ctx, payload)
	if err != nil {
		return SendResult{}, err
	}

	// A 409 duplicate may come back without the stored id; fall back to the
	// one we already recorded for this order.
	if result.ID == "" && ord.DispatchID() != "" {
		result.ID = ord.DispatchID()
	}
	if result.ID == "" {
		// Deliveries are keyed by the external id on the partner side, so it
		// is a usable handle when no native id ever came back.
		result.ID = payload.ExternalDeliveryID
	}

	if result.TrackingURL == "" {
		result.TrackingURL = h.fetchTrackingURL(ctx, result.ID)
	}

	h.logger.InfoContext(ctx, "Delivery dispatched",
		"order_id", ord.ID(),
		"dispatch_id", result.ID,
		"status", result.Status,
		"source", meta.Source,
		"reason", meta.Reason)

	h.persist(ctx, ord, payload, result)

	return SendResult{
		DispatchID:  result.ID,
		TrackingURL: result.TrackingURL,
		Status:      result.Status,
	}, nil
}

// lookupMerchant resolves the configured pickup profile for the order's store.
// Any failure degrades to nil; translation then falls back to order fields.
func (h *SendOrderCommandHandler) lookupMerchant(ctx context.Context, raw json.RawMessage) *merchant.Merchant {
	storeID := services.StoreID(raw)
	if storeID == "" {
		return nil
	}

	m, err := h.merchants.Lookup(ctx, storeID)
	if err != nil {
		if !errors.Is(err, errs.ErrObjectNotFound) {
			h.logger.WarnContext(ctx, "Merchant lookup failed", "store_id", storeID, "error", err)
		}
		return nil
	}

	return m
}

// fetchTrackingURL retries the status fetch up to twice with 1s then 2s
// backoff. A tracking URL that never materializes is not a failure.
func (h *SendOrderCommandHandler) fetchTrackingURL(ctx context.Context, dispatchID string) string {
	if dispatchID == "" {
		return ""
	}

	for _, backoff := range trackingBackoff {
		select {
		case <-ctx.Done():
			return ""
		case <-h.clk.After(backoff):
		}

		status, err := h.client.GetStatus(ctx, dispatchID)
		if err != nil {
			if !errors.Is(err, errs.ErrObjectNotFound) {
				h.logger.DebugContext(ctx, "Tracking URL fetch failed", "dispatch_id", dispatchID, "error", err)
			}
			continue
		}

		if status.TrackingURL != "" {
			return status.TrackingURL
		}
	}

	return ""
}

// persist records the dispatch outcome on the aggregate and in the store.
// There is no transaction across the partner boundary: a failed local write
// after a successful network call is logged, never rolled back.
func (h *SendOrderCommandHandler) persist(
	ctx context.Context,
	ord *order.Order,
	payload partner.DispatchPayload,
	result *partner.DispatchResult,
) {
	if err := ord.MarkSent(result.ID, result.TrackingURL); err != nil && !errors.Is(err, order.ErrOrderAlreadySent) {
		h.logger.WarnContext(ctx, "Could not mark aggregate sent", "order_id", ord.ID(), "error", err)
	}

	merged := mergeAudit(ord.Raw(), payload, result.Raw)
	if err := h.store.MarkSent(ctx, ord.ID(), result.ID, result.TrackingURL, merged); err != nil {
		switch {
		case errors.Is(err, errs.ErrConflict):
			h.logger.InfoContext(ctx, "Dispatch outcome already recorded", "order_id", ord.ID())
		case errors.Is(err, errs.ErrObjectNotFound):
			h.logger.DebugContext(ctx, "Order has no local record, dispatch outcome not persisted",
				"order_id", ord.ID())
		default:
			h.logger.ErrorContext(ctx, "Dispatch succeeded but local write failed",
				"order_id", ord.ID(), "dispatch_id", result.ID, "error", err)
		}
	}
}

// mergeAudit folds the dispatch request and partner response into the order's
// raw snapshot for audit.
func mergeAudit(raw json.RawMessage, payload partner.DispatchPayload, response json.RawMessage) json.RawMessage {
	base := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &base)
	}

	base["dispatch_request"] = payload
	if len(response) > 0 {
		base["dispatch_response"] = response
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return raw
	}
	return merged
}
