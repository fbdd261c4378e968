// Package http is the inbound HTTP surface of the dispatch pipeline: the
// order webhook, delivery lifecycle endpoints and operator reads.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps inbound webhook payloads.
const maxWebhookBody = 1 << 20

// errorResponse is the error body returned by every endpoint.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// orderEvent is the envelope of an inbound order webhook. Upstream
// integrations disagree on field names, so ids and delivery times are read
// from several aliases. The full body travels on as the order snapshot.
type orderEvent struct {
	ID                    string `json:"id"`
	OrderID               string `json:"order_id"`
	Type                  string `json:"type"`
	DeliveryTime          string `json:"delivery_time"`
	RequestedDeliveryTime string `json:"requested_delivery_time"`
}

// cancelRequest is the optional body of the cancel endpoint.
type cancelRequest struct {
	Reason string `json:"reason"`
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	dispatchHandler commands.DispatchOrderCommandHandler
	pendingHandler  queries.GetPendingDispatchesQueryHandler

	store     ports.OrderStore
	client    ports.PartnerClient
	scheduler commands.OrderScheduler
	clk       clock.Clock
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with the required handlers and ports.
func NewServer(
	dispatchHandler commands.DispatchOrderCommandHandler,
	pendingHandler queries.GetPendingDispatchesQueryHandler,
	store ports.OrderStore,
	client ports.PartnerClient,
	scheduler commands.OrderScheduler,
	clk clock.Clock,
	logger *slog.Logger,
) *Server {
	return &Server{
		dispatchHandler: dispatchHandler,
		pendingHandler:  pendingHandler,
		store:           store,
		client:          client,
		scheduler:       scheduler,
		clk:             clk,
		logger:          logger.With("component", "http_server"),
	}
}

// RegisterRoutes attaches all endpoints to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/orders", s.ReceiveOrder)
	e.POST("/deliveries/:order_id/ready", s.MarkReady)
	e.POST("/deliveries/:order_id/cancel", s.CancelDelivery)
	e.GET("/orders/pending", s.GetPendingDispatches)
	e.GET("/health", s.Health)
}

// ReceiveOrder handles POST /webhooks/orders. The inbound event is routed
// through the dispatch gate and the gate's decision is returned. Dispatch
// failures are reported in the outcome, not as HTTP errors: the upstream has
// delivered its event either way and must not retry it.
func (s *Server) ReceiveOrder(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBody))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Could not read request body",
		})
	}

	var event orderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order event",
		})
	}

	orderID := event.ID
	if orderID == "" {
		orderID = event.OrderID
	}

	cmd, err := commands.NewDispatchOrderCommand(
		orderID,
		event.Type,
		body,
		parseDeliveryTime(event.DeliveryTime, event.RequestedDeliveryTime),
		"webhook",
	)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order event: " + err.Error(),
		})
	}

	outcome, err := s.dispatchHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "Order event rejected",
			"order_id", orderID, "error", err)
		return ctx.JSON(http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "Could not process order event",
		})
	}

	return ctx.JSON(http.StatusOK, outcome)
}

// MarkReady handles POST /deliveries/:order_id/ready - signals the partner
// that the order is ready for courier pickup.
func (s *Server) MarkReady(ctx echo.Context) error {
	ord, status, msg := s.lookupSentOrder(ctx, ctx.Param("order_id"))
	if status != 0 {
		return ctx.JSON(status, errorResponse{Code: status, Message: msg})
	}

	if _, err := s.client.MarkReadyForPickup(ctx.Request().Context(), ord.DispatchID()); err != nil {
		return s.partnerError(ctx, "Could not mark delivery ready", err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelDelivery handles POST /deliveries/:order_id/cancel. A pending
// schedule is dropped; a delivery already handed to the partner is cancelled
// there as well. The local order ends Cancelled either way.
func (s *Server) CancelDelivery(ctx echo.Context) error {
	orderID := ctx.Param("order_id")

	var req cancelRequest
	if err := ctx.Bind(&req); err != nil || req.Reason == "" {
		req.Reason = "merchant_request"
	}

	ord, err := s.store.GetByID(ctx.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, errorResponse{
				Code:    http.StatusNotFound,
				Message: "Order not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Could not load order",
		})
	}

	s.scheduler.Cancel(ord.ID(), req.Reason)

	if ord.Sent() && ord.DispatchID() != "" {
		if _, err := s.client.Cancel(ctx.Request().Context(), ord.DispatchID(), req.Reason); err != nil {
			return s.partnerError(ctx, "Could not cancel delivery", err)
		}
	}

	if err := s.store.UpdateStatus(ctx.Request().Context(), ord.ID(), order.Cancelled, s.clk.Now()); err != nil {
		s.logger.WarnContext(ctx.Request().Context(), "Cancel recorded at partner but local write failed",
			"order_id", ord.ID(), "error", err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetPendingDispatches handles GET /orders/pending - lists delivery orders
// awaiting dispatch.
func (s *Server) GetPendingDispatches(ctx echo.Context) error {
	query := queries.NewGetPendingDispatchesQuery()

	pending, err := s.pendingHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve pending dispatches",
		})
	}

	return ctx.JSON(http.StatusOK, pending)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// lookupSentOrder loads an order that must already have been handed to the
// partner. A non-zero status means the caller should respond with that error.
func (s *Server) lookupSentOrder(ctx echo.Context, orderID string) (*order.Order, int, string) {
	ord, err := s.store.GetByID(ctx.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, http.StatusNotFound, "Order not found"
		}
		return nil, http.StatusInternalServerError, "Could not load order"
	}

	if !ord.Sent() || ord.DispatchID() == "" {
		return nil, http.StatusConflict, "Order has no dispatched delivery"
	}

	return ord, 0, ""
}

// partnerError maps a failed partner call to an HTTP error response.
func (s *Server) partnerError(ctx echo.Context, message string, err error) error {
	s.logger.ErrorContext(ctx.Request().Context(), message, "error", err)

	status := http.StatusBadGateway
	if errors.Is(err, errs.ErrObjectNotFound) {
		status = http.StatusNotFound
	}

	return ctx.JSON(status, errorResponse{Code: status, Message: message})
}

// parseDeliveryTime reads the first parseable delivery time among candidates.
// Unparseable or absent values yield nil, which means dispatch now.
func parseDeliveryTime(candidates ...string) *time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return &t
		}
	}
	return nil
}
