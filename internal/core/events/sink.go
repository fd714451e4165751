// Package events defines the fire-and-forget event contract used for
// audit logging and notification jobs. Publishing must never fail a
// committed business operation; implementations log and swallow errors.
package events

import (
	"context"

	"retailops/internal/core/id"
)

// Well-known event types.
const (
	TypeOrderCompleted  = "pos_order.completed"
	TypeOrderCancelled  = "pos_order.cancelled"
	TypeReceiptEmail    = "pos_order.receipt_email"
	TypePurchaseCreated = "purchase_order.created"
	TypeStockAdjusted   = "inventory.adjusted"
)

// Event is a domain event destined for the audit log or a job queue.
type Event struct {
	// AggregateType names the entity kind (e.g., "PosOrder")
	AggregateType string
	// AggregateID identifies the entity
	AggregateID id.ID
	// Type is one of the Type* constants
	Type string
	// Payload is marshalled to JSON by the sink
	Payload any
}

// Sink accepts events without blocking the caller on delivery.
// Errors are reported for logging only; callers must not fail on them.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// NopSink discards all events. Used in tests and tools.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(ctx context.Context, event Event) error { return nil }

var _ Sink = NopSink{}
