// Package partner contains the value objects of the delivery-partner wire
// contract: the translated create-delivery payload and the normalized result
// of partner calls.
//
// The partner API has grown several generations of field aliases
// (delivery_id|id|support_reference, delivery_status|status|state); this
// package is the single place that knows them and folds them into one
// vocabulary for the rest of the pipeline.
package partner
