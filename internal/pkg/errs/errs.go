package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigIsInvalid is the sentinel for missing or blank configuration values,
	// typically partner credentials. Fatal on the startup path, caught per call otherwise.
	ErrConfigIsInvalid = errors.New("configuration is invalid")

	// ErrValueIsInvalid is the sentinel for malformed addresses, payloads and other
	// per-order validation failures. The affected order stays unsent.
	ErrValueIsInvalid = errors.New("value is invalid")

	// ErrAuthFailed is the sentinel for partner 401 responses.
	// Never auto-retried; the diagnostic names credential shape, never the secret.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrConflict is the sentinel for partner 409 duplicate responses.
	// Treated as success-equivalent by callers.
	ErrConflict = errors.New("conflict")

	// ErrObjectNotFound is the sentinel for missing local records and partner 404s.
	// Benign on status polls.
	ErrObjectNotFound = errors.New("object not found")

	// ErrTransportFailed is the sentinel for network failures, timeouts and 5xx
	// responses. The order stays pending; reconciliation is the safety net.
	ErrTransportFailed = errors.New("transport failed")
)

// ConfigError reports a missing or blank configuration value.
type ConfigError struct {
	ParamName string
	Cause     error
}

func NewConfigError(paramName string) *ConfigError {
	return &ConfigError{ParamName: paramName}
}

func NewConfigErrorWithCause(paramName string, cause error) *ConfigError {
	return &ConfigError{ParamName: paramName, Cause: cause}
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: %s (cause: %s)", ErrConfigIsInvalid, e.ParamName, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrConfigIsInvalid, e.ParamName))
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigIsInvalid
}

// ValidationError reports a malformed value in an order or payload.
type ValidationError struct {
	ParamName string
	Cause     error
}

func NewValidationError(paramName string) *ValidationError {
	return &ValidationError{ParamName: paramName}
}

func NewValidationErrorWithCause(paramName string, cause error) *ValidationError {
	return &ValidationError{ParamName: paramName, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: %s (cause: %s)", ErrValueIsInvalid, e.ParamName, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName))
}

func (e *ValidationError) Unwrap() error {
	return ErrValueIsInvalid
}

// AuthError reports a partner authentication failure. Diagnostic describes the
// credential only by length and prefix so it can be logged safely.
type AuthError struct {
	Diagnostic string
	Cause      error
}

func NewAuthError(diagnostic string) *AuthError {
	return &AuthError{Diagnostic: diagnostic}
}

func NewAuthErrorWithCause(diagnostic string, cause error) *AuthError {
	return &AuthError{Diagnostic: diagnostic, Cause: cause}
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: %s (cause: %s)", ErrAuthFailed, e.Diagnostic, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrAuthFailed, e.Diagnostic))
}

func (e *AuthError) Unwrap() error {
	return ErrAuthFailed
}

// ConflictError reports a duplicate-resource response from the partner.
type ConflictError struct {
	ParamName string
	ID        any
}

func NewConflictError(paramName string, id any) *ConflictError {
	return &ConflictError{ParamName: paramName, ID: id}
}

func (e *ConflictError) Error() string {
	return sanitize(fmt.Sprintf("%s: param is: %s, ID is: %s", ErrConflict, e.ParamName, e.ID))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// ObjectNotFoundError reports a missing object, locally or at the partner.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %s)",
			ErrObjectNotFound, e.ParamName, e.ID, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID))
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// TransportError reports a network failure, timeout or partner 5xx.
type TransportError struct {
	Op    string
	Cause error
}

func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Cause: cause}
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: %s (cause: %s)", ErrTransportFailed, e.Op, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrTransportFailed, e.Op))
}

func (e *TransportError) Unwrap() error {
	return ErrTransportFailed
}

// sanitize collapses newlines so error messages stay single-line in logs.
func sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
