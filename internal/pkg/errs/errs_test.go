package errs_test

import (
	"errors"
	"testing"

	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	t.Run("NewConfigError", func(t *testing.T) {
		err := errs.NewConfigError("signing_secret")

		assert.Equal(t, "signing_secret", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "configuration is invalid: signing_secret", err.Error())
		assert.Equal(t, errs.ErrConfigIsInvalid, err.Unwrap())
	})

	t.Run("NewConfigErrorWithCause", func(t *testing.T) {
		cause := errors.New("env var unset")
		err := errs.NewConfigErrorWithCause("developer_id", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "configuration is invalid: developer_id (cause: env var unset)", err.Error())
		assert.True(t, errors.Is(err, errs.ErrConfigIsInvalid))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("NewValidationError", func(t *testing.T) {
		err := errs.NewValidationError("dropoff_address")

		assert.Equal(t, "dropoff_address", err.ParamName)
		assert.Equal(t, "value is invalid: dropoff_address", err.Error())
		assert.Equal(t, errs.ErrValueIsInvalid, err.Unwrap())
	})

	t.Run("NewValidationErrorWithCause", func(t *testing.T) {
		cause := errors.New("shorter than 10 characters")
		err := errs.NewValidationErrorWithCause("pickup_address", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "value is invalid: pickup_address (cause: shorter than 10 characters)", err.Error())
	})
}

func TestAuthError(t *testing.T) {
	err := errs.NewAuthError("key_id has length 8, prefix \"ab\"")

	assert.True(t, errors.Is(err, errs.ErrAuthFailed))
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Contains(t, err.Error(), "prefix")
}

func TestConflictError(t *testing.T) {
	err := errs.NewConflictError("external_delivery_id", "1001")

	assert.Equal(t, "external_delivery_id", err.ParamName)
	assert.Equal(t, "1001", err.ID)
	assert.Equal(t, "conflict: param is: external_delivery_id, ID is: 1001", err.Error())
	assert.Equal(t, errs.ErrConflict, err.Unwrap())
}

func TestObjectNotFoundError(t *testing.T) {
	t.Run("NewObjectNotFoundError", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("orderId", "123")

		assert.Equal(t, "orderId", err.ParamName)
		assert.Equal(t, "123", err.ID)
		assert.Equal(t, "object not found: 123", err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("NewObjectNotFoundErrorWithCause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := errs.NewObjectNotFoundErrorWithCause("orderId", "123", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"object not found: param is: orderId, ID is: 123 (cause: database connection failed)",
			err.Error())
	})
}

func TestTransportError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := errs.NewTransportError("create delivery", cause)

	assert.Equal(t, "create delivery", err.Op)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, "transport failed: create delivery (cause: dial tcp: connection refused)", err.Error())
	assert.True(t, errors.Is(err, errs.ErrTransportFailed))
}

func TestSanitizeNewlines(t *testing.T) {
	err := errs.NewValidationErrorWithCause("address", errors.New("hello\nworld"))

	assert.Contains(t, err.Error(), "hello world")
	assert.NotContains(t, err.Error(), "\n")
}
