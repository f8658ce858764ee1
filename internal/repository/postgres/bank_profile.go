// Package postgres implements the persistence layer with sqlx.
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

// BankProfileRepository persists bank profiles and serializes their counter
// movements with row locking.
type BankProfileRepository struct {
	db *sqlx.DB
}

// NewBankProfileRepository creates a new BankProfileRepository.
func NewBankProfileRepository(db *sqlx.DB) *BankProfileRepository {
	return &BankProfileRepository{db: db}
}

// Create inserts a new bank profile.
func (r *BankProfileRepository) Create(ctx context.Context, profile *domain.BankProfile) error {
	query := `
		INSERT INTO bank_profiles (
			id, owner_id, owner_name, owner_document, bank_code, layout,
			agency, account, account_digit, wallet, agreement_code, transmission_code,
			min_identifier, max_identifier, current_identifier, current_sequence,
			interest_monthly_percent, fine_percent, protest_days, write_off_days,
			is_active, created_at, updated_at
		) VALUES (
			:id, :owner_id, :owner_name, :owner_document, :bank_code, :layout,
			:agency, :account, :account_digit, :wallet, :agreement_code, :transmission_code,
			:min_identifier, :max_identifier, :current_identifier, :current_sequence,
			:interest_monthly_percent, :fine_percent, :protest_days, :write_off_days,
			:is_active, :created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("create bank profile: %w", err)
	}
	return nil
}

// FindByOwnerAndBank fetches the profile an owner holds at a bank.
func (r *BankProfileRepository) FindByOwnerAndBank(ctx context.Context, ownerID uuid.UUID, bankCode string) (*domain.BankProfile, error) {
	var profile domain.BankProfile
	query := `SELECT * FROM bank_profiles WHERE owner_id = $1 AND bank_code = $2`
	err := r.db.GetContext(ctx, &profile, query, ownerID, bankCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.ErrBankProfileNotFound
		}
		return nil, fmt.Errorf("find bank profile: %w", err)
	}
	return &profile, nil
}

// GetByID fetches one profile.
func (r *BankProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BankProfile, error) {
	var profile domain.BankProfile
	query := `SELECT * FROM bank_profiles WHERE id = $1`
	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.ErrBankProfileNotFound
		}
		return nil, fmt.Errorf("get bank profile: %w", err)
	}
	return &profile, nil
}

// Update implements the allocator's counter store. The SELECT ... FOR UPDATE
// holds the row until tx commits or rolls back, which is what makes
// concurrent allocations against one profile serializable.
func (r *BankProfileRepository) Update(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID, fn func(p *domain.BankProfile) error) error {
	if tx == nil {
		return fmt.Errorf("counter update requires a transaction")
	}

	var profile domain.BankProfile
	query := `SELECT * FROM bank_profiles WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &profile, query, profileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pkgerrors.ErrBankProfileNotFound
		}
		return fmt.Errorf("lock bank profile: %w", err)
	}

	if err := fn(&profile); err != nil {
		return err
	}

	update := `
		UPDATE bank_profiles
		SET current_identifier = $1, current_sequence = $2, updated_at = NOW()
		WHERE id = $3
	`
	if _, err := tx.ExecContext(ctx, update, profile.CurrentIdentifier, profile.CurrentSequence, profileID); err != nil {
		return fmt.Errorf("update bank profile counters: %w", err)
	}
	return nil
}
