package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatchOrderCommand(t *testing.T) {
	t.Run("should create command with valid parameters", func(t *testing.T) {
		deliveryAt := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
		raw := []byte(`{"id": "ord-1"}`)

		cmd, err := commands.NewDispatchOrderCommand("ord-1", order.TypeDelivery, raw, &deliveryAt, "webhook")

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Equal(t, "ord-1", cmd.OrderID())
		assert.Equal(t, order.TypeDelivery, cmd.OrderType())
		assert.Equal(t, raw, []byte(cmd.Raw()))
		assert.Equal(t, deliveryAt, *cmd.DeliveryTime())
		assert.Equal(t, "webhook", cmd.Source())
	})

	t.Run("should allow empty order id", func(t *testing.T) {
		cmd, err := commands.NewDispatchOrderCommand("", order.TypeDelivery, []byte(`{}`), nil, "webhook")

		require.NoError(t, err)
		assert.Empty(t, cmd.OrderID())
	})

	t.Run("should fail without payload", func(t *testing.T) {
		_, err := commands.NewDispatchOrderCommand("ord-1", order.TypeDelivery, nil, nil, "webhook")

		require.ErrorIs(t, err, commands.ErrOrderPayloadIsRequired)
	})

	t.Run("should reject zero value", func(t *testing.T) {
		var cmd commands.DispatchOrderCommand

		require.ErrorIs(t, cmd.Validate(), commands.ErrDispatchOrderCommandIsNotConstructed)
	})
}

func TestNewSendOrderCommand(t *testing.T) {
	t.Run("should create command with constructed order", func(t *testing.T) {
		ord, err := order.NewOrder("ord-1", order.TypeDelivery, []byte(`{"id": "ord-1"}`), nil)
		require.NoError(t, err)
		meta := scheduling.Metadata{Source: "timer", Reason: "window"}

		cmd, err := commands.NewSendOrderCommand(ord, meta)

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Same(t, ord, cmd.Order())
		assert.Equal(t, meta, cmd.Metadata())
	})

	t.Run("should fail without order", func(t *testing.T) {
		_, err := commands.NewSendOrderCommand(nil, scheduling.Metadata{})

		require.ErrorIs(t, err, commands.ErrOrderIsRequired)
	})

	t.Run("should fail with unconstructed order", func(t *testing.T) {
		_, err := commands.NewSendOrderCommand(&order.Order{}, scheduling.Metadata{})

		require.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
	})
}

func TestNewReconcileOrdersCommand(t *testing.T) {
	t.Run("should default zero limit", func(t *testing.T) {
		cmd, err := commands.NewReconcileOrdersCommand(0)

		require.NoError(t, err)
		assert.Equal(t, 100, cmd.Limit())
	})

	t.Run("should keep explicit limit", func(t *testing.T) {
		cmd, err := commands.NewReconcileOrdersCommand(25)

		require.NoError(t, err)
		assert.Equal(t, 25, cmd.Limit())
	})

	t.Run("should reject negative limit", func(t *testing.T) {
		_, err := commands.NewReconcileOrdersCommand(-1)

		require.ErrorIs(t, err, commands.ErrReconcileLimitIsInvalid)
	})
}

func TestNewRestoreSchedulesCommand(t *testing.T) {
	t.Run("should default zero limit", func(t *testing.T) {
		cmd, err := commands.NewRestoreSchedulesCommand(0)

		require.NoError(t, err)
		assert.Equal(t, 500, cmd.Limit())
	})

	t.Run("should reject negative limit", func(t *testing.T) {
		_, err := commands.NewRestoreSchedulesCommand(-10)

		require.ErrorIs(t, err, commands.ErrRestoreLimitIsInvalid)
	})
}
