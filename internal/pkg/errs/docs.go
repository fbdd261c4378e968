// Package errs provides the standardized error taxonomy for the dispatch service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The taxonomy mirrors how failures at the delivery-partner boundary are handled:
//   - ConfigError: missing or blank credentials/configuration
//   - ValidationError: malformed addresses or payloads (the order stays unsent)
//   - AuthError: partner 401 with a safe credential diagnostic, never auto-retried
//   - ConflictError: partner 409 duplicate, treated as success-equivalent
//   - ObjectNotFoundError: missing records and partner 404s, benign for status polls
//   - TransportError: network/timeout/5xx, recovered by reconciliation
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g. ErrAuthFailed)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method so errors.Is can classify against the sentinel
//
// Classification via errors.Is against the sentinels is what lets the
// coordinator degrade one order's failure to a skipped outcome instead of
// aborting a whole batch.
package errs
