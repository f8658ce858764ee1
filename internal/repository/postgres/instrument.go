package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
)

// InstrumentRepository persists payable instruments.
type InstrumentRepository struct {
	db *sqlx.DB
}

// NewInstrumentRepository creates a new InstrumentRepository.
func NewInstrumentRepository(db *sqlx.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// Create inserts an instrument inside the issuing transaction.
func (r *InstrumentRepository) Create(ctx context.Context, tx *sqlx.Tx, inst *domain.PayableInstrument) error {
	query := `
		INSERT INTO payable_instruments (
			id, owner_id, bank_code,
			payer_name, payer_document, payer_address, payer_district,
			payer_city, payer_state, payer_zip,
			amount, due_date, issue_date, species_code,
			identifier, identifier_digit, barcode, digitable_line,
			source_refs, status, created_at, updated_at
		) VALUES (
			:id, :owner_id, :bank_code,
			:payer_name, :payer_document, :payer_address, :payer_district,
			:payer_city, :payer_state, :payer_zip,
			:amount, :due_date, :issue_date, :species_code,
			:identifier, :identifier_digit, :barcode, :digitable_line,
			:source_refs, :status, :created_at, :updated_at
		)
	`
	var err error
	if tx != nil {
		_, err = tx.NamedExecContext(ctx, query, inst)
	} else {
		_, err = r.db.NamedExecContext(ctx, query, inst)
	}
	if err != nil {
		return fmt.Errorf("create instrument: %w", err)
	}
	return nil
}

// GetByID fetches one instrument.
func (r *InstrumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PayableInstrument, error) {
	var inst domain.PayableInstrument
	query := `SELECT * FROM payable_instruments WHERE id = $1`
	err := r.db.GetContext(ctx, &inst, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.ErrInstrumentNotFound
		}
		return nil, fmt.Errorf("get instrument: %w", err)
	}
	return &inst, nil
}

// ListByStatus returns an owner's instruments at a bank in one status,
// oldest first.
func (r *InstrumentRepository) ListByStatus(ctx context.Context, ownerID uuid.UUID, bankCode string, status domain.InstrumentStatus) ([]*domain.PayableInstrument, error) {
	var instruments []*domain.PayableInstrument
	query := `
		SELECT * FROM payable_instruments
		WHERE owner_id = $1 AND bank_code = $2 AND status = $3
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &instruments, query, ownerID, bankCode, status); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return instruments, nil
}

// UpdateStatus flips the status of a set of instruments in one statement.
func (r *InstrumentRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, status domain.InstrumentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE payable_instruments
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, pq.Array(ids))
	} else {
		_, err = r.db.ExecContext(ctx, query, status, pq.Array(ids))
	}
	if err != nil {
		return fmt.Errorf("update instrument status: %w", err)
	}
	return nil
}
