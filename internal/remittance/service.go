package remittance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fidc/internal/cnab"
	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
	"fidc/pkg/logger"
)

// TxRunner executes fn inside one database transaction, committing when fn
// returns nil and rolling back otherwise. The sequence advance, the batch
// row and the status flips all ride the same transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// Sequencer stamps each generated file with the profile's next sequence
// number.
type Sequencer interface {
	NextSequence(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID) (int, error)
}

// BatchRepository persists generated batches.
type BatchRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, batch *domain.RemittanceBatch) error
}

// InstrumentRepository flips instrument statuses once they enter a batch.
type InstrumentRepository interface {
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID, status domain.InstrumentStatus) error
}

// Service generates remittance files. Generation is all or nothing: any
// formatting failure rolls back the sequence advance and leaves every
// instrument untouched.
type Service struct {
	txRunner    TxRunner
	sequencer   Sequencer
	batches     BatchRepository
	instruments InstrumentRepository
	logger      logger.Logger
	now         func() time.Time
}

// NewService wires a remittance generator.
func NewService(txRunner TxRunner, sequencer Sequencer, batches BatchRepository, instruments InstrumentRepository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		txRunner:    txRunner,
		sequencer:   sequencer,
		batches:     batches,
		instruments: instruments,
		logger:      log,
		now:         time.Now,
	}
}

// Generate assembles one remittance file for the given profile and marks the
// included instruments registered. Instruments must have been approved
// first; anything else in the list aborts the batch.
func (s *Service) Generate(ctx context.Context, profile *domain.BankProfile, instruments []*domain.PayableInstrument) (*domain.RemittanceBatch, error) {
	if len(instruments) == 0 {
		return nil, pkgerrors.ErrEmptyBatch
	}
	if !profile.IsActive {
		return nil, pkgerrors.Wrap(pkgerrors.ErrBankProfileInactive, profile.BankCode)
	}
	for _, inst := range instruments {
		if inst.Status != domain.StatusApproved {
			return nil, pkgerrors.ForInstrument(inst.ID.String(),
				pkgerrors.Wrap(pkgerrors.ErrInvalidTransition,
					fmt.Sprintf("cannot register instrument in status %s", inst.Status)))
		}
	}

	assembler, err := ForLayout(profile.Layout)
	if err != nil {
		return nil, err
	}
	generated := s.now()

	var batch *domain.RemittanceBatch
	err = s.txRunner.InTx(ctx, func(tx *sqlx.Tx) error {
		sequence, err := s.sequencer.NextSequence(ctx, tx, profile.ID)
		if err != nil {
			return err
		}

		lines, err := assembler.Assemble(profile, instruments, sequence, generated)
		if err != nil {
			return err
		}
		content, err := cnab.RenderFile(lines)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(instruments))
		for i, inst := range instruments {
			ids[i] = inst.ID
		}

		batch = &domain.RemittanceBatch{
			ID:            uuid.New(),
			OwnerID:       profile.OwnerID,
			BankCode:      profile.BankCode,
			Layout:        profile.Layout,
			Sequence:      int64(sequence),
			Filename:      Filename(generated, sequence),
			Content:       content,
			RecordCount:   len(lines),
			InstrumentIDs: ids,
			GeneratedAt:   generated,
		}
		if err := s.batches.Create(ctx, tx, batch); err != nil {
			return err
		}
		return s.instruments.UpdateStatus(ctx, tx, ids, domain.StatusRegistered)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("remittance batch generated", map[string]interface{}{
		"batch_id":    batch.ID.String(),
		"bank_code":   batch.BankCode,
		"filename":    batch.Filename,
		"sequence":    batch.Sequence,
		"instruments": len(instruments),
	})
	return batch, nil
}

// Filename renders the fixed remittance file name: CB, day and month of
// generation, the four-digit sequence and the .REM extension.
func Filename(generated time.Time, sequence int) string {
	return fmt.Sprintf("CB%s%04d.REM", generated.Format("0201"), sequence)
}
