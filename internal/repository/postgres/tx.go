package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxRunner scopes a unit of work to one database transaction.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates a TxRunner over the given connection pool.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (r *TxRunner) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
