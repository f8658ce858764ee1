package allocator

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fidc/internal/domain"
	pkgerrors "fidc/pkg/errors"
	"fidc/pkg/logger"
)

// memoryCounters serializes counter updates with a mutex, mirroring the row
// lock the database store takes.
type memoryCounters struct {
	mu      sync.Mutex
	profile domain.BankProfile
}

func (m *memoryCounters) Update(_ context.Context, _ *sqlx.Tx, _ uuid.UUID, fn func(p *domain.BankProfile) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.profile
	if err := fn(&snapshot); err != nil {
		return err
	}
	m.profile = snapshot
	return nil
}

type mockCounters struct {
	mock.Mock
}

func (m *mockCounters) Update(ctx context.Context, tx *sqlx.Tx, profileID uuid.UUID, fn func(p *domain.BankProfile) error) error {
	args := m.Called(ctx, tx, profileID, fn)
	return args.Error(0)
}

func newMemoryStore(min, max int64) *memoryCounters {
	return &memoryCounters{profile: domain.BankProfile{
		ID:                uuid.New(),
		MinIdentifier:     min,
		MaxIdentifier:     max,
		CurrentIdentifier: min - 1,
	}}
}

func TestAllocateIdentifiers_FirstBlockStartsAtRangeFloor(t *testing.T) {
	store := newMemoryStore(1000000, 1999999)
	alloc := New(store, logger.NewNop())

	block, err := alloc.AllocateIdentifiers(context.Background(), nil, store.profile.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(1000000), block.First)
	assert.Equal(t, int64(1000002), block.Last)
	assert.Equal(t, []int64{1000000, 1000001, 1000002}, block.Identifiers())
	assert.Equal(t, int64(1000002), store.profile.CurrentIdentifier)
}

func TestAllocateIdentifiers_BlocksAreContiguous(t *testing.T) {
	store := newMemoryStore(100, 999)
	alloc := New(store, logger.NewNop())
	ctx := context.Background()

	first, err := alloc.AllocateIdentifiers(ctx, nil, store.profile.ID, 4)
	require.NoError(t, err)
	second, err := alloc.AllocateIdentifiers(ctx, nil, store.profile.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, first.Last+1, second.First)
	assert.Equal(t, int64(105), second.Last)
}

func TestAllocateIdentifiers_ExhaustionLeavesCounter(t *testing.T) {
	store := newMemoryStore(1, 10)
	alloc := New(store, logger.NewNop())
	ctx := context.Background()

	_, err := alloc.AllocateIdentifiers(ctx, nil, store.profile.ID, 8)
	require.NoError(t, err)

	_, err = alloc.AllocateIdentifiers(ctx, nil, store.profile.ID, 5)
	assert.ErrorIs(t, err, pkgerrors.ErrRangeExhausted)
	assert.Equal(t, int64(8), store.profile.CurrentIdentifier)

	// the two remaining identifiers are still available
	block, err := alloc.AllocateIdentifiers(ctx, nil, store.profile.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), block.First)
	assert.Equal(t, int64(10), block.Last)
}

func TestAllocateIdentifiers_RejectsNonPositiveCount(t *testing.T) {
	alloc := New(newMemoryStore(1, 10), logger.NewNop())

	_, err := alloc.AllocateIdentifiers(context.Background(), nil, uuid.New(), 0)
	assert.Error(t, err)
	_, err = alloc.AllocateIdentifiers(context.Background(), nil, uuid.New(), -3)
	assert.Error(t, err)
}

func TestAllocateIdentifiers_ConcurrentBlocksNeverOverlap(t *testing.T) {
	store := newMemoryStore(5000, 9999)
	alloc := New(store, logger.NewNop())

	const workers = 20
	const perWorker = 5

	var wg sync.WaitGroup
	results := make(chan Block, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			block, err := alloc.AllocateIdentifiers(context.Background(), nil, store.profile.ID, perWorker)
			assert.NoError(t, err)
			results <- block
		}()
	}
	wg.Wait()
	close(results)

	var allocated []int64
	for block := range results {
		allocated = append(allocated, block.Identifiers()...)
	}
	require.Len(t, allocated, workers*perWorker)

	sort.Slice(allocated, func(i, j int) bool { return allocated[i] < allocated[j] })
	for i, id := range allocated {
		assert.Equal(t, int64(5000+i), id, "allocation must be gapless and duplicate-free")
	}
	assert.Equal(t, int64(5000+workers*perWorker-1), store.profile.CurrentIdentifier)
}

func TestAllocateIdentifiers_StoreError(t *testing.T) {
	store := new(mockCounters)
	store.On("Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(pkgerrors.ErrBankProfileNotFound)

	alloc := New(store, logger.NewNop())
	_, err := alloc.AllocateIdentifiers(context.Background(), nil, uuid.New(), 1)
	assert.ErrorIs(t, err, pkgerrors.ErrBankProfileNotFound)
	store.AssertExpectations(t)
}

func TestNextSequence_Increments(t *testing.T) {
	store := newMemoryStore(1, 10)
	alloc := New(store, logger.NewNop())
	ctx := context.Background()

	seq, err := alloc.NextSequence(ctx, nil, store.profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	seq, err = alloc.NextSequence(ctx, nil, store.profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)
}

func TestNextSequence_NeverReusesAfterExhaustion(t *testing.T) {
	store := newMemoryStore(1, 10)
	store.profile.CurrentSequence = 9999
	alloc := New(store, logger.NewNop())

	_, err := alloc.NextSequence(context.Background(), nil, store.profile.ID)
	require.ErrorIs(t, err, pkgerrors.ErrRangeExhausted)
	assert.Equal(t, int64(9999), store.profile.CurrentSequence,
		"exhaustion must not move the counter")

	_, err = alloc.NextSequence(context.Background(), nil, store.profile.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrRangeExhausted)
}
