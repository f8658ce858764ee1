// Package instrument issues payable instruments: it validates inbound
// requests, reserves identifiers, computes the barcode and digitable line
// and drives the instrument lifecycle.
package instrument

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fidc/internal/allocator"
	"fidc/internal/boleto"
	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
	"fidc/pkg/logger"
	"fidc/pkg/validator"
)

// TxRunner executes fn inside one database transaction, committing when fn
// returns nil and rolling back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// ProfileRepository resolves the issuing configuration for an owner and
// bank.
type ProfileRepository interface {
	FindByOwnerAndBank(ctx context.Context, ownerID uuid.UUID, bankCode string) (*domain.BankProfile, error)
}

// IdentifierSource reserves a contiguous identifier block inside tx.
type IdentifierSource interface {
	AllocateIdentifiers(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID, count int) (allocator.Block, error)
}

// Repository persists instruments.
type Repository interface {
	Create(ctx context.Context, tx *sqlx.Tx, inst *domain.PayableInstrument) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PayableInstrument, error)
	ListByStatus(ctx context.Context, ownerID uuid.UUID, bankCode string, status domain.InstrumentStatus) ([]*domain.PayableInstrument, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, status domain.InstrumentStatus) error
}

// Service issues and transitions payable instruments. Issuance is atomic
// per call: either every requested instrument is created with its allocated
// identifier and encoding, or none are and the counter stays put.
type Service struct {
	txRunner    TxRunner
	profiles    ProfileRepository
	identifiers IdentifierSource
	repo        Repository
	validate    *validator.Validator
	logger      logger.Logger
	now         func() time.Time
}

// NewService wires an instrument issuing service.
func NewService(txRunner TxRunner, profiles ProfileRepository, identifiers IdentifierSource, repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		txRunner:    txRunner,
		profiles:    profiles,
		identifiers: identifiers,
		repo:        repo,
		validate:    validator.New(),
		logger:      log,
		now:         time.Now,
	}
}

// Issue creates one pending instrument per payer under the owner's profile
// for the given bank: requests sharing a payer document are first folded
// together with MergeByPayer. Identifier allocation, encoding and inserts
// share one transaction.
func (s *Service) Issue(ctx context.Context, ownerID uuid.UUID, bankCode string, requests []domain.InstrumentRequest) ([]*domain.PayableInstrument, error) {
	if len(requests) == 0 {
		return nil, pkgerrors.ErrEmptyBatch
	}
	for i, req := range requests {
		if err := s.validate.Validate(req); err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("request %d", i))
		}
	}
	requests = MergeByPayer(requests)

	profile, err := s.profiles.FindByOwnerAndBank(ctx, ownerID, bankCode)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, pkgerrors.Wrap(pkgerrors.ErrBankProfileInactive, bankCode)
	}
	spec, err := boleto.Spec(profile.BankCode)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	var instruments []*domain.PayableInstrument
	err = s.txRunner.InTx(ctx, func(tx *sqlx.Tx) error {
		block, err := s.identifiers.AllocateIdentifiers(ctx, tx, profile.ID, len(requests))
		if err != nil {
			return err
		}

		instruments = make([]*domain.PayableInstrument, 0, len(requests))
		for i, req := range requests {
			identifier := block.First + int64(i)
			inst, err := s.build(profile, spec, req, identifier, issued)
			if err != nil {
				return err
			}
			if err := s.repo.Create(ctx, tx, inst); err != nil {
				return pkgerrors.ForInstrument(inst.ID.String(), err)
			}
			instruments = append(instruments, inst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("instruments issued", map[string]interface{}{
		"owner_id":  ownerID.String(),
		"bank_code": bankCode,
		"count":     len(instruments),
	})
	return instruments, nil
}

// build assembles one pending instrument with its identifier check digit,
// barcode and digitable line.
func (s *Service) build(profile *domain.BankProfile, spec boleto.BankSpec, req domain.InstrumentRequest, identifier int64, issued time.Time) (*domain.PayableInstrument, error) {
	id := uuid.New()

	digit, err := spec.IdentifierDigit(profile.Wallet, identifier)
	if err != nil {
		return nil, pkgerrors.ForField(id.String(), "identifier_digit", err)
	}
	encoding, err := boleto.Encode(profile, identifier, req.Amount, req.DueDate)
	if err != nil {
		return nil, pkgerrors.ForField(id.String(), "barcode", err)
	}

	return &domain.PayableInstrument{
		ID:              id,
		OwnerID:         profile.OwnerID,
		BankCode:        profile.BankCode,
		PayerName:       validator.Sanitize(req.PayerName),
		PayerDocument:   validator.DigitsOnly(req.PayerDocument),
		PayerAddress:    validator.Sanitize(req.PayerAddress),
		PayerDistrict:   validator.Sanitize(req.PayerDistrict),
		PayerCity:       validator.Sanitize(req.PayerCity),
		PayerState:      validator.Sanitize(req.PayerState),
		PayerZip:        req.PayerZip,
		Amount:          req.Amount,
		DueDate:         req.DueDate,
		IssueDate:       issued,
		SpeciesCode:     SpeciesCode(req.Species),
		Identifier:      identifier,
		IdentifierDigit: digit,
		Barcode:         encoding.Barcode,
		DigitableLine:   encoding.DigitableLine,
		SourceRefs:      pq.StringArray(strings.Split(req.SourceRef, ",")),
		Status:          domain.StatusPending,
	}, nil
}

// Approve moves a pending instrument to approved, clearing it for the next
// remittance batch.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*domain.PayableInstrument, error) {
	return s.transition(ctx, id, domain.StatusApproved)
}

// Cancel withdraws an instrument that has not yet been registered.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.PayableInstrument, error) {
	return s.transition(ctx, id, domain.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next domain.InstrumentStatus) (*domain.PayableInstrument, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inst.Status.CanTransitionTo(next) {
		return nil, pkgerrors.ForInstrument(id.String(),
			pkgerrors.Wrap(pkgerrors.ErrInvalidTransition,
				fmt.Sprintf("%s to %s", inst.Status, next)))
	}

	err = s.txRunner.InTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdateStatus(ctx, tx, []uuid.UUID{id}, next)
	})
	if err != nil {
		return nil, err
	}

	inst.Status = next
	s.logger.Info("instrument transitioned", map[string]interface{}{
		"instrument_id": id.String(),
		"status":        string(next),
	})
	return inst, nil
}

// ListApproved returns the instruments ready to enter a remittance batch
// for the owner and bank.
func (s *Service) ListApproved(ctx context.Context, ownerID uuid.UUID, bankCode string) ([]*domain.PayableInstrument, error) {
	return s.repo.ListByStatus(ctx, ownerID, bankCode, domain.StatusApproved)
}

// SpeciesCode maps an invoice species mnemonic to its layout code,
// defaulting to duplicata de servico.
func SpeciesCode(species string) string {
	switch species {
	case "DM":
		return "02"
	case "DS", "":
		return "04"
	default:
		return "04"
	}
}

// MergeByPayer folds requests that share a payer document into one request
// per payer, summing amounts, keeping the earliest due date and collecting
// every source reference.
func MergeByPayer(requests []domain.InstrumentRequest) []domain.InstrumentRequest {
	merged := make([]domain.InstrumentRequest, 0, len(requests))
	index := make(map[string]int)

	for _, req := range requests {
		doc := validator.DigitsOnly(req.PayerDocument)
		pos, seen := index[doc]
		if !seen {
			index[doc] = len(merged)
			merged = append(merged, req)
			continue
		}
		merged[pos].Amount = merged[pos].Amount.Add(req.Amount)
		if req.DueDate.Before(merged[pos].DueDate) {
			merged[pos].DueDate = req.DueDate
		}
		merged[pos].SourceRef = merged[pos].SourceRef + "," + req.SourceRef
	}
	return merged
}
