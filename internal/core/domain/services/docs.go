// Package services contains stateless domain services.
//
// OrderTranslator is the only service here: it converts an inbound order
// snapshot plus an optional merchant profile into the partner's dispatch
// payload. It is pure (no ports, no clock), which keeps translation trivially
// testable against fixture payloads.
package services
