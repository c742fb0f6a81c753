package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"ride/internal/domain"
	"ride/internal/repository/postgres"
)

// RecordTransition appends an audit row for a single validated state machine
// transition, in the same transaction as the write it describes. It is
// intentionally best-effort about nothing: a failure here rolls back the
// whole transaction, since an unlogged transition is as much a bug as an
// unpersisted one.
func RecordTransition(ctx context.Context, tx *sql.Tx, entity domain.EntityKind, entityID, from, to string) error {
	repo := postgres.NewTransitionRepositoryWithTx(tx)
	return repo.Record(ctx, &domain.EntityTransition{
		ID:         uuid.New().String(),
		Entity:     entity,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		CreatedAt:  time.Now(),
	})
}
