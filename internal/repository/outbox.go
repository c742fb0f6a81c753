package repository

import (
	"context"

	"ride/internal/domain"
)

// OutboxRepository defines the persistence operations for the transactional
// outbox the Payment Service writes to and the Outbox Worker drains.
type OutboxRepository interface {
	// Create persists a new outbox row. Called in the same transaction as
	// the aggregate it describes.
	Create(ctx context.Context, event *domain.OutboxEvent) error

	// ListUnprocessed returns up to limit unprocessed rows, oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)

	// MarkProcessed flags event id as processed.
	MarkProcessed(ctx context.Context, id string) error

	// MarkProcessedByAggregate flags all unprocessed rows for
	// (aggregateType, aggregateID) as processed — used by the webhook
	// handler, which finalizes a payment without going through a specific
	// outbox row.
	MarkProcessedByAggregate(ctx context.Context, aggregateType, aggregateID string) error
}

// TransitionRepository defines the append-only audit log of state machine
// transitions: every caller that validates a transition via the
// statemachine package also records it here, in the same transaction.
type TransitionRepository interface {
	Record(ctx context.Context, t *domain.EntityTransition) error
}
