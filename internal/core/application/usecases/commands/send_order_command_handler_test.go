package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/merchant"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/scheduling"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderStore struct{ mock.Mock }

func (m *MockOrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderStore) GetAll(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, id string, status order.Status, observedAt time.Time) error {
	args := m.Called(ctx, id, status, observedAt)
	return args.Error(0)
}

func (m *MockOrderStore) MarkSent(ctx context.Context, id, dispatchID, trackingURL string, raw json.RawMessage) error {
	args := m.Called(ctx, id, dispatchID, trackingURL, raw)
	return args.Error(0)
}

func (m *MockOrderStore) Upsert(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

type MockMerchantDirectory struct{ mock.Mock }

func (m *MockMerchantDirectory) Lookup(ctx context.Context, storeID string) (*merchant.Merchant, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.Merchant), args.Error(1)
}

type MockPartnerClient struct{ mock.Mock }

func (m *MockPartnerClient) CreateDelivery(ctx context.Context, payload partner.DispatchPayload) (*partner.DispatchResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.DispatchResult), args.Error(1)
}

func (m *MockPartnerClient) GetStatus(ctx context.Context, id string) (*partner.DispatchResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.DispatchResult), args.Error(1)
}

func (m *MockPartnerClient) Cancel(ctx context.Context, id, reason string) (*partner.DispatchResult, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.DispatchResult), args.Error(1)
}

func (m *MockPartnerClient) MarkReadyForPickup(ctx context.Context, id string) (*partner.DispatchResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.DispatchResult), args.Error(1)
}

func (m *MockPartnerClient) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sendTestRaw = `{
	"id": "ord-1",
	"type": "delivery",
	"store_id": "store-1",
	"delivery_address": "200 Oak Avenue, Springfield, IL 62702"
}`

func sendTestOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ord-1", order.TypeDelivery, []byte(sendTestRaw), nil)
	require.NoError(t, err)
	return o
}

func sendTestMerchant() *merchant.Merchant {
	return &merchant.Merchant{
		ID:      "store-1",
		Name:    "Mario's Pizzeria",
		Address: "100 Main Street, Springfield, IL, 62701",
	}
}

func newSendHandler(
	merchants *MockMerchantDirectory,
	client *MockPartnerClient,
	store *MockOrderStore,
	clk clock.Clock,
) commands.SendOrderCommandHandler {
	return commands.NewSendOrderCommandHandler(
		services.NewOrderTranslator(), merchants, client, store, clk, discardLogger(),
	)
}

func TestSendOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	ord := sendTestOrder(t)
	cmd, err := commands.NewSendOrderCommand(ord, scheduling.Metadata{Source: "webhook"})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	client := new(MockPartnerClient)
	store := new(MockOrderStore)

	merchants.On("Lookup", ctx, "store-1").Return(sendTestMerchant(), nil).Once()
	client.On("CreateDelivery", ctx, mock.AnythingOfType("partner.DispatchPayload")).
		Return(&partner.DispatchResult{
			ID:          "dd-123",
			Status:      partner.StatusCreated,
			TrackingURL: "https://track.example/dd-123",
		}, nil).Once()
	store.On("MarkSent", ctx, "ord-1", "dd-123", "https://track.example/dd-123", mock.Anything).
		Return(nil).Once()

	handler := newSendHandler(merchants, client, store, clock.NewMock())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, "dd-123", result.DispatchID)
	assert.Equal(t, "https://track.example/dd-123", result.TrackingURL)
	assert.Equal(t, partner.StatusCreated, result.Status)
	assert.True(t, ord.Sent())
	merchants.AssertExpectations(t)
	client.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSendOrderCommandHandler_Handle_AlreadySent(t *testing.T) {
	ctx := t.Context()
	ord := sendTestOrder(t)
	require.NoError(t, ord.MarkSent("dd-old", "https://track.example/dd-old"))
	cmd, err := commands.NewSendOrderCommand(ord, scheduling.Metadata{})
	require.NoError(t, err)

	client := new(MockPartnerClient)
	store := new(MockOrderStore)

	handler := newSendHandler(new(MockMerchantDirectory), client, store, clock.NewMock())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, partner.StatusExisting, result.Status)
	assert.Equal(t, "dd-old", result.DispatchID)
	client.AssertNotCalled(t, "CreateDelivery")
	store.AssertNotCalled(t, "MarkSent")
}

func TestSendOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.SendOrderCommand{} // not constructed properly

	client := new(MockPartnerClient)
	handler := newSendHandler(new(MockMerchantDirectory), client, new(MockOrderStore), clock.NewMock())
	_, err := handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrSendOrderCommandIsNotConstructed)
	client.AssertNotCalled(t, "CreateDelivery")
}

func TestSendOrderCommandHandler_Handle_TranslationFailure(t *testing.T) {
	ctx := t.Context()
	ord, err := order.NewOrder("ord-1", order.TypeDelivery, []byte(`{"store_id": "store-1"}`), nil)
	require.NoError(t, err)
	cmd, err := commands.NewSendOrderCommand(ord, scheduling.Metadata{})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	merchants.On("Lookup", ctx, "store-1").Return(sendTestMerchant(), nil).Once()
	client := new(MockPartnerClient)

	handler := newSendHandler(merchants, client, new(MockOrderStore), clock.NewMock())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	client.AssertNotCalled(t, "CreateDelivery")
}

func TestSendOrderCommandHandler_Handle_MerchantLookupDegrades(t *testing.T) {
	ctx := t.Context()
	raw := `{
		"id": "ord-1",
		"store_id": "store-1",
		"store_address": "100 Main Street",
		"store_city": "Springfield",
		"store_state": "IL",
		"store_zip": "62701",
		"delivery_address": "200 Oak Avenue, Springfield, IL 62702"
	}`
	ord, err := order.NewOrder("ord-1", order.TypeDelivery, []byte(raw), nil)
	require.NoError(t, err)
	cmd, err := commands.NewSendOrderCommand(ord, scheduling.Metadata{})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	merchants.On("Lookup", ctx, "store-1").
		Return(nil, errs.NewObjectNotFoundError("merchant", "store-1")).Once()

	client := new(MockPartnerClient)
	client.On("CreateDelivery", ctx, mock.MatchedBy(func(p partner.DispatchPayload) bool {
		return p.PickupAddress == "100 Main Street, Springfield, IL, 62701"
	})).Return(&partner.DispatchResult{ID: "dd-1", Status: partner.StatusCreated, TrackingURL: "u"}, nil).Once()

	store := new(MockOrderStore)
	store.On("MarkSent", ctx, "ord-1", "dd-1", "u", mock.Anything).Return(nil).Once()

	handler := newSendHandler(merchants, client, store, clock.NewMock())
	_, err = handler.Handle(ctx, cmd)

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSendOrderCommandHandler_Handle_PartnerFailure(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewSendOrderCommand(sendTestOrder(t), scheduling.Metadata{})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	merchants.On("Lookup", ctx, "store-1").Return(sendTestMerchant(), nil).Once()

	client := new(MockPartnerClient)
	client.On("CreateDelivery", ctx, mock.Anything).
		Return(nil, errs.NewTransportError("create delivery", errors.New("connection refused"))).Once()

	store := new(MockOrderStore)

	handler := newSendHandler(merchants, client, store, clock.NewMock())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrTransportFailed)
	store.AssertNotCalled(t, "MarkSent")
}

func TestSendOrderCommandHandler_Handle_ExistingWithoutID(t *testing.T) {
	ctx := t.Context()
	ord := sendTestOrder(t)
	cmd, err := commands.NewSendOrderCommand(ord, scheduling.Metadata{})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	merchants.On("Lookup", ctx, "store-1").Return(sendTestMerchant(), nil).Once()

	// Duplicate response without a usable delivery id: the external id is the
	// partner-side key and becomes the recorded handle.
	client := new(MockPartnerClient)
	client.On("CreateDelivery", ctx, mock.Anything).
		Return(&partner.DispatchResult{Status: partner.StatusExisting, TrackingURL: "u"}, nil).Once()

	store := new(MockOrderStore)
	store.On("MarkSent", ctx, "ord-1", "ord-1", "u", mock.Anything).Return(nil).Once()

	handler := newSendHandler(merchants, client, store, clock.NewMock())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, "ord-1", result.DispatchID)
	store.AssertExpectations(t)
}

func TestSendOrderCommandHandler_Handle_TrackingURLRetry(t *testing.T) {
	ctx := t.Context()
	ord := sendTestOrder(t)
	cmd, err := commands.NewSendOrderCommand(ord, scheduling.Metadata{})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	merchants.On("Lookup", ctx, "store-1").Return(sendTestMerchant(), nil).Once()

	client := new(MockPartnerClient)
	client.On("CreateDelivery", ctx, mock.Anything).
		Return(&partner.DispatchResult{ID: "dd-123", Status: partner.StatusCreated}, nil).Once()

	mock.InOrder(
		client.On("GetStatus", ctx, "dd-123").
			Return(nil, errs.NewObjectNotFoundError("delivery", "dd-123")).Once(),
		client.On("GetStatus", ctx, "dd-123").
			Return(&partner.DispatchResult{ID: "dd-123", TrackingURL: "https://track.example/dd-123"}, nil).Once(),
	)

	store := new(MockOrderStore)
	store.On("MarkSent", ctx, "ord-1", "dd-123", "https://track.example/dd-123", mock.Anything).
		Return(nil).Once()

	clk := clock.NewMock()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				clk.Add(time.Second)
				runtime.Gosched()
			}
		}
	}()

	handler := newSendHandler(merchants, client, store, clk)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, "https://track.example/dd-123", result.TrackingURL)
	client.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSendOrderCommandHandler_Handle_LocalWriteFailureStillSucceeds(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewSendOrderCommand(sendTestOrder(t), scheduling.Metadata{})
	require.NoError(t, err)

	merchants := new(MockMerchantDirectory)
	merchants.On("Lookup", ctx, "store-1").Return(sendTestMerchant(), nil).Once()

	client := new(MockPartnerClient)
	client.On("CreateDelivery", ctx, mock.Anything).
		Return(&partner.DispatchResult{ID: "dd-1", Status: partner.StatusCreated, TrackingURL: "u"}, nil).Once()

	store := new(MockOrderStore)
	store.On("MarkSent", ctx, "ord-1", "dd-1", "u", mock.Anything).
		Return(errors.New("db down")).Once()

	handler := newSendHandler(merchants, client, store, clock.NewMock())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, "dd-1", result.DispatchID)
}
