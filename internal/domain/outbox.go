package domain

import "time"

// OutboxEventType identifies the kind of event an outbox row carries.
type OutboxEventType string

const (
	OutboxEventPaymentInitiated OutboxEventType = "PAYMENT_INITIATED"
	OutboxEventPaymentRetry     OutboxEventType = "PAYMENT_RETRY"
)

// OutboxEvent is a transactional-outbox row written atomically alongside the
// aggregate it describes (e.g. a Payment), and later drained by the Outbox
// Worker.
//
// Processed transitions false -> true exactly once; a row with Processed ==
// true is never re-picked up by the poller.
type OutboxEvent struct {
	ID            string
	AggregateType string // e.g. "PAYMENT"
	AggregateID   string
	EventType     OutboxEventType
	Payload       string // JSON
	Processed     bool
	CreatedAt     time.Time
	ProcessedAt   time.Time
}

// EntityKind identifies the aggregate a transition log row describes.
type EntityKind string

const (
	EntityRide   EntityKind = "RIDE"
	EntityDriver EntityKind = "DRIVER"
	EntityTrip   EntityKind = "TRIP"
	EntityPayment EntityKind = "PAYMENT"
)

// EntityTransition is an append-only audit row recording a single state
// machine transition validated by the statemachine package.
type EntityTransition struct {
	ID         string
	Entity     EntityKind
	EntityID   string
	FromStatus string
	ToStatus   string
	Reason     string
	CreatedAt  time.Time
}
