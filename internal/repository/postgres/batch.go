package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

// BatchRepository persists generated remittance batches and their
// instrument membership.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts the batch and one membership row per instrument, all
// inside the generation transaction.
func (r *BatchRepository) Create(ctx context.Context, tx *sqlx.Tx, batch *domain.RemittanceBatch) error {
	if tx == nil {
		return fmt.Errorf("batch creation requires a transaction")
	}

	query := `
		INSERT INTO remittance_batches (
			id, owner_id, bank_code, layout, sequence, filename,
			content, record_count, generated_at
		) VALUES (
			:id, :owner_id, :bank_code, :layout, :sequence, :filename,
			:content, :record_count, :generated_at
		)
	`
	if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create remittance batch: %w", err)
	}

	itemQuery := `INSERT INTO remittance_batch_items (batch_id, instrument_id) VALUES ($1, $2)`
	for _, instrumentID := range batch.InstrumentIDs {
		if _, err := tx.ExecContext(ctx, itemQuery, batch.ID, instrumentID); err != nil {
			return fmt.Errorf("link instrument %s to batch: %w", instrumentID, err)
		}
	}
	return nil
}

// GetByID fetches one batch including its file content and instrument ids.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RemittanceBatch, error) {
	var batch domain.RemittanceBatch
	query := `SELECT * FROM remittance_batches WHERE id = $1`
	err := r.db.GetContext(ctx, &batch, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.ErrBatchNotFound
		}
		return nil, fmt.Errorf("get remittance batch: %w", err)
	}

	itemQuery := `SELECT instrument_id FROM remittance_batch_items WHERE batch_id = $1`
	if err := r.db.SelectContext(ctx, &batch.InstrumentIDs, itemQuery, id); err != nil {
		return nil, fmt.Errorf("get batch instruments: %w", err)
	}
	return &batch, nil
}

// ListByOwner returns an owner's batches at a bank, newest first, without
// file content.
func (r *BatchRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, bankCode string) ([]*domain.RemittanceBatch, error) {
	var batches []*domain.RemittanceBatch
	query := `
		SELECT id, owner_id, bank_code, layout, sequence, filename,
		       ''::bytea AS content, record_count, generated_at
		FROM remittance_batches
		WHERE owner_id = $1 AND bank_code = $2
		ORDER BY sequence DESC
	`
	if err := r.db.SelectContext(ctx, &batches, query, ownerID, bankCode); err != nil {
		return nil, fmt.Errorf("list remittance batches: %w", err)
	}
	return batches, nil
}
