// Package scheduling owns the timing half of the dispatch pipeline.
//
// DeliveryScheduler keeps one in-memory entry per order id and decides, per
// order, between immediate dispatch and a timer armed a configured buffer
// ahead of the requested delivery moment. Buffering avoids sending a courier
// far ahead of need while orders lacking a delivery time still go out right
// away.
//
// Timing is fully decoupled from transport: the scheduler only calls an
// injected DispatchSink, and its clock is injected so tests drive it with
// virtual time.
package scheduling
