// Package allocator hands out bank-scoped identifier blocks and remittance
// sequence numbers. All state lives on the bank profile row; the store is
// responsible for holding an exclusive lock while the counters move.
package allocator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
	"fidc/pkg/logger"
)

// ProfileCounters loads a bank profile under an exclusive lock, applies fn
// and persists the counter columns when fn succeeds. When fn returns an
// error nothing is written and the counters stay where they were.
type ProfileCounters interface {
	Update(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID, fn func(p *domain.BankProfile) error) error
}

// Block is a contiguous run of allocated identifiers.
type Block struct {
	First int64
	Last  int64
}

// Count returns the number of identifiers in the block.
func (b Block) Count() int {
	return int(b.Last - b.First + 1)
}

// Identifiers expands the block into its individual values, in order.
func (b Block) Identifiers() []int64 {
	out := make([]int64, 0, b.Count())
	for id := b.First; id <= b.Last; id++ {
		out = append(out, id)
	}
	return out
}

// Allocator reserves identifier blocks and sequence numbers against a bank
// profile's counters.
type Allocator struct {
	store  ProfileCounters
	logger logger.Logger
}

// New creates an identifier and sequence allocator backed by the given store.
func New(store ProfileCounters, log logger.Logger) *Allocator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Allocator{store: store, logger: log}
}

// AllocateIdentifiers reserves count consecutive identifiers from the
// profile's configured range. The reservation and whatever the caller
// creates with it share tx, so a rollback returns the identifiers to the
// pool. Exhaustion leaves the counter untouched.
func (a *Allocator) AllocateIdentifiers(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID, count int) (Block, error) {
	if count <= 0 {
		return Block{}, fmt.Errorf("identifier count must be positive, got %d", count)
	}

	var block Block
	err := a.store.Update(ctx, tx, profileID, func(p *domain.BankProfile) error {
		b, next, err := nextBlock(p, count)
		if err != nil {
			return err
		}
		p.CurrentIdentifier = next
		block = b
		return nil
	})
	if err != nil {
		return Block{}, err
	}

	a.logger.Debug("allocated identifier block", map[string]interface{}{
		"profile_id": profileID.String(),
		"first":      block.First,
		"last":       block.Last,
	})
	return block, nil
}

// NextSequence advances the profile's remittance sequence and returns the
// new value. Sequence numbers are never reused: the sequence occupies four
// digits in the remittance filename, and once 9999 has been handed out
// further calls fail with ErrRangeExhausted, leaving the counter unchanged.
func (a *Allocator) NextSequence(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID) (int, error) {
	var seq int
	err := a.store.Update(ctx, tx, profileID, func(p *domain.BankProfile) error {
		next := p.CurrentSequence + 1
		if next > 9999 {
			return pkgerrors.Wrap(pkgerrors.ErrRangeExhausted, "remittance sequence")
		}
		p.CurrentSequence = next
		seq = int(next)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// nextBlock computes the block a counter position yields for count
// identifiers. CurrentIdentifier records the last value handed out, so a
// fresh profile starts below MinIdentifier.
func nextBlock(p *domain.BankProfile, count int) (Block, int64, error) {
	first := p.CurrentIdentifier + 1
	if first < p.MinIdentifier {
		first = p.MinIdentifier
	}
	last := first + int64(count) - 1
	if last > p.MaxIdentifier {
		return Block{}, 0, pkgerrors.Wrap(pkgerrors.ErrRangeExhausted,
			fmt.Sprintf("need %d identifiers, %d left in range %d-%d",
				count, p.MaxIdentifier-first+1, p.MinIdentifier, p.MaxIdentifier))
	}
	return Block{First: first, Last: last}, last, nil
}
