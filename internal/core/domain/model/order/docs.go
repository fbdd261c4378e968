// Package order contains the Order aggregate and its status state machine.
//
// The dispatch pipeline does not own the full order record; the upstream order
// system does. This aggregate models only the slice the pipeline reads and
// mutates: identity, type, lifecycle status, the raw inbound snapshot, the
// requested delivery time, and the dispatch outcome (sent flag, partner
// dispatch id, tracking URL).
//
// The sent flag is the single authoritative "already dispatched" signal. It is
// set together with the dispatch id by MarkSent, which succeeds at most once,
// so the partner is never asked to create a second courier job for the same
// order.
package order
