// Package txrunner wraps the repeated db.BeginTx/rollback/commit shape into
// a single helper, so every service method that needs an atomic
// multi-repository write expresses it as one callback instead of
// hand-rolling the boilerplate each time.
package txrunner

import (
	"context"
	"database/sql"
)

// Run begins a transaction on db, invokes fn with it, and commits on a nil
// return or rolls back otherwise. fn's own returned error is propagated
// unchanged after rollback.
func Run(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
