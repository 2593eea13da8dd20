package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/contalibre/contalibre/internal/coa"
)

type memoryRepo struct {
	mu        sync.Mutex
	accounts  []coa.Account
	entries   map[uuid.UUID]Entry
	movements map[uuid.UUID][]Movement
	counters  map[int64]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries:   make(map[uuid.UUID]Entry),
		movements: make(map[uuid.UUID][]Movement),
		counters:  make(map[int64]int64),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, (*memoryTx)(r))
}

func (r *memoryRepo) GetEntry(_ context.Context, id uuid.UUID) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	entry.Movements = r.movements[id]
	return entry, nil
}

func (r *memoryRepo) ListEntries(_ context.Context, companyID int64, _, _ int) ([]Entry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) LoadSnapshot(_ context.Context, companyID int64) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{Accounts: r.accounts}
	for id, e := range r.entries {
		if e.CompanyID != companyID {
			continue
		}
		snap.Entries = append(snap.Entries, e)
		snap.Movements = append(snap.Movements, r.movements[id]...)
	}
	return snap, nil
}

type memoryTx memoryRepo

func (t *memoryTx) InsertEntry(_ context.Context, e Entry) (Entry, error) {
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	t.entries[e.ID] = e
	return e, nil
}

func (t *memoryTx) InsertMovements(_ context.Context, entryID uuid.UUID, movements []Movement) error {
	t.movements[entryID] = append(t.movements[entryID], movements...)
	return nil
}

func (t *memoryTx) DeleteMovements(_ context.Context, entryID uuid.UUID) error {
	delete(t.movements, entryID)
	return nil
}

func (t *memoryTx) GetEntryForUpdate(_ context.Context, id uuid.UUID) (Entry, error) {
	entry, ok := t.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (t *memoryTx) GetMovements(_ context.Context, entryID uuid.UUID) ([]Movement, error) {
	return t.movements[entryID], nil
}

func (t *memoryTx) ReserveEntryNumber(_ context.Context, companyID int64) (int64, error) {
	t.counters[companyID]++
	return t.counters[companyID], nil
}

func (t *memoryTx) MarkApplied(_ context.Context, id uuid.UUID, number int64, totalDebit, totalCredit decimal.Decimal) error {
	entry, ok := t.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Status = StatusApplied
	entry.Number = number
	entry.TotalDebit = totalDebit
	entry.TotalCredit = totalCredit
	t.entries[id] = entry
	return nil
}

func (t *memoryTx) MarkCancelled(_ context.Context, id uuid.UUID) error {
	entry, ok := t.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Status = StatusCancelled
	t.entries[id] = entry
	return nil
}

type countingCache struct {
	mu    sync.Mutex
	bumps int
}

func (c *countingCache) Bump(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumps++
	return nil
}

func balancedInput(companyID int64, accountA, accountB uuid.UUID, amt string) CreateEntryInput {
	v := decimal.RequireFromString(amt)
	return CreateEntryInput{
		CompanyID: companyID,
		Date:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
		Type:      "diario",
		Movements: []MovementInput{
			{AccountID: accountA, Debit: v, Credit: decimal.Zero},
			{AccountID: accountB, Debit: decimal.Zero, Credit: v},
		},
	}
}

func TestServiceApplyLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	cache := &countingCache{}
	svc := NewService(repo, cache)
	ctx := context.Background()

	accountA, accountB := uuid.New(), uuid.New()
	entry, err := svc.CreateEntry(ctx, balancedInput(1, accountA, accountB, "250.00"))
	require.NoError(t, err)
	require.Equal(t, StatusDraft, entry.Status)
	require.Len(t, entry.Movements, 2)
	require.Zero(t, cache.bumps)

	applied, err := svc.Apply(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApplied, applied.Status)
	require.EqualValues(t, 1, applied.Number)
	require.True(t, applied.TotalDebit.Equal(decimal.RequireFromString("250.00")))
	require.Equal(t, 1, cache.bumps)

	// Applied entries are frozen.
	_, err = svc.Apply(ctx, entry.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.ReplaceMovements(ctx, entry.ID, balancedInput(1, accountA, accountB, "1.00").Movements)
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestServiceApplyRejectsUnbalanced(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	input := balancedInput(1, uuid.New(), uuid.New(), "100.00")
	input.Movements[1].Credit = decimal.RequireFromString("100.02")
	entry, err := svc.CreateEntry(ctx, input)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, entry.ID)
	require.ErrorIs(t, err, ErrUnbalanced)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
}

func TestServiceApplyAcceptsRoundingResidue(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	input := balancedInput(1, uuid.New(), uuid.New(), "100.00")
	input.Movements[1].Credit = decimal.RequireFromString("100.01")
	entry, err := svc.CreateEntry(ctx, input)
	require.NoError(t, err)

	applied, err := svc.Apply(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApplied, applied.Status)
}

func TestServiceApplyRequiresTwoMovements(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{
		CompanyID: 1,
		Date:      time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC),
		Movements: []MovementInput{{AccountID: uuid.New(), Debit: decimal.Zero, Credit: decimal.Zero}},
	})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, entry.ID)
	require.ErrorIs(t, err, ErrTooFewMovements)
}

func TestServiceEntryNumbersArePerCompany(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	a1, _ := svc.CreateEntry(ctx, balancedInput(1, uuid.New(), uuid.New(), "10.00"))
	a2, _ := svc.CreateEntry(ctx, balancedInput(1, uuid.New(), uuid.New(), "20.00"))
	b1, _ := svc.CreateEntry(ctx, balancedInput(2, uuid.New(), uuid.New(), "30.00"))

	applied1, err := svc.Apply(ctx, a1.ID)
	require.NoError(t, err)
	applied2, err := svc.Apply(ctx, a2.ID)
	require.NoError(t, err)
	appliedB, err := svc.Apply(ctx, b1.ID)
	require.NoError(t, err)

	require.EqualValues(t, 1, applied1.Number)
	require.EqualValues(t, 2, applied2.Number)
	require.EqualValues(t, 1, appliedB.Number)
}

func TestServiceCancel(t *testing.T) {
	repo := newMemoryRepo()
	cache := &countingCache{}
	svc := NewService(repo, cache)
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, balancedInput(1, uuid.New(), uuid.New(), "40.00"))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, 1, cache.bumps)

	// Cancelled is terminal.
	_, err = svc.Cancel(ctx, entry.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.Apply(ctx, entry.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestServiceReplaceMovements(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, balancedInput(1, uuid.New(), uuid.New(), "10.00"))
	require.NoError(t, err)

	accountC := uuid.New()
	replaced, err := svc.ReplaceMovements(ctx, entry.ID, []MovementInput{
		{AccountID: accountC, Debit: decimal.RequireFromString("99.00"), Credit: decimal.Zero},
		{AccountID: uuid.New(), Debit: decimal.Zero, Credit: decimal.RequireFromString("99.00")},
	})
	require.NoError(t, err)
	require.Len(t, replaced.Movements, 2)
	require.Equal(t, accountC, replaced.Movements[0].AccountID)

	got, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, got.Movements, 2)
	require.True(t, got.Movements[0].Debit.Equal(decimal.RequireFromString("99.00")))
}

func TestServiceBalancesUsesSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	caja := coa.Account{ID: uuid.New(), Code: "100-001-000-000", Nature: coa.NatureDebit}
	ventas := coa.Account{ID: uuid.New(), Code: "400-001-000-000", Nature: coa.NatureCredit}
	repo.accounts = []coa.Account{caja, ventas}

	svc := NewService(repo, nil)
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, balancedInput(1, caja.ID, ventas.ID, "300.00"))
	require.NoError(t, err)
	_, err = svc.Apply(ctx, entry.ID)
	require.NoError(t, err)

	balances, err := svc.Balances(ctx, 1, nil, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, balances, 2)
	require.True(t, balances[0].Closing.Equal(decimal.RequireFromString("300.00")))
	require.True(t, balances[1].Closing.Equal(decimal.RequireFromString("300.00")))
}
