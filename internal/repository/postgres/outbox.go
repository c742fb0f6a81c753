package postgres

import (
	"context"
	"database/sql"

	"ride/internal/domain"
	"ride/internal/repository"
)

// OutboxRepository is a PostgreSQL implementation of repository.OutboxRepository.
type OutboxRepository struct {
	q Querier
}

// NewOutboxRepository creates a new PostgreSQL outbox repository over db.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{q: db}
}

// NewOutboxRepositoryWithTx creates an outbox repository scoped to tx —
// used when writing the outbox row atomically with the aggregate it
// describes (e.g. create_payment).
func NewOutboxRepositoryWithTx(tx *sql.Tx) *OutboxRepository {
	return &OutboxRepository{q: tx}
}

// Create persists a new outbox row.
func (r *OutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		event.ID, event.AggregateType, event.AggregateID, event.EventType,
		event.Payload, event.Processed, event.CreatedAt,
	)
	return err
}

// ListUnprocessed returns up to limit unprocessed rows, oldest first.
func (r *OutboxRepository) ListUnprocessed(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, processed, created_at, processed_at
		FROM outbox_events WHERE processed = false ORDER BY created_at ASC LIMIT $1
	`
	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var processedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.Processed, &e.CreatedAt, &processedAt); err != nil {
			return nil, err
		}
		e.ProcessedAt = processedAt.Time
		events = append(events, &e)
	}
	return events, rows.Err()
}

// MarkProcessed flags event id as processed.
func (r *OutboxRepository) MarkProcessed(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE outbox_events SET processed = true, processed_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkProcessedByAggregate flags all unprocessed rows for
// (aggregateType, aggregateID) as processed.
func (r *OutboxRepository) MarkProcessedByAggregate(ctx context.Context, aggregateType, aggregateID string) error {
	query := `UPDATE outbox_events SET processed = true, processed_at = now()
	          WHERE aggregate_type = $1 AND aggregate_id = $2 AND processed = false`
	_, err := r.q.ExecContext(ctx, query, aggregateType, aggregateID)
	return err
}

var (
	_ repository.OutboxRepository = (*OutboxRepository)(nil)
)

// TransitionRepository is a PostgreSQL implementation of
// repository.TransitionRepository — the supplemented audit log.
type TransitionRepository struct {
	q Querier
}

// NewTransitionRepository creates a transition repository over db.
func NewTransitionRepository(db *sql.DB) *TransitionRepository {
	return &TransitionRepository{q: db}
}

// NewTransitionRepositoryWithTx scopes the transition repository to tx —
// it should always be written in the same transaction as the transition
// it records.
func NewTransitionRepositoryWithTx(tx *sql.Tx) *TransitionRepository {
	return &TransitionRepository{q: tx}
}

// Record appends a transition row.
func (r *TransitionRepository) Record(ctx context.Context, t *domain.EntityTransition) error {
	query := `
		INSERT INTO entity_transitions (id, entity, entity_id, from_status, to_status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query, t.ID, t.Entity, t.EntityID, t.FromStatus, t.ToStatus, t.Reason, t.CreatedAt)
	return err
}

var _ repository.TransitionRepository = (*TransitionRepository)(nil)
