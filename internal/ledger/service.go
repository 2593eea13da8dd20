package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntry(ctx context.Context, id uuid.UUID) (Entry, error)
	ListEntries(ctx context.Context, companyID int64, page, perPage int) ([]Entry, int, error)
	LoadSnapshot(ctx context.Context, companyID int64) (Snapshot, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, e Entry) (Entry, error)
	InsertMovements(ctx context.Context, entryID uuid.UUID, movements []Movement) error
	DeleteMovements(ctx context.Context, entryID uuid.UUID) error
	GetEntryForUpdate(ctx context.Context, id uuid.UUID) (Entry, error)
	GetMovements(ctx context.Context, entryID uuid.UUID) ([]Movement, error)
	// ReserveEntryNumber atomically increments and returns the per-company
	// entry counter. Numbering lives at the storage boundary so concurrent
	// applies never race a client-side max() scan.
	ReserveEntryNumber(ctx context.Context, companyID int64) (int64, error)
	MarkApplied(ctx context.Context, id uuid.UUID, number int64, totalDebit, totalCredit decimal.Decimal) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
}

// CacheInvalidator bumps downstream report caches after ledger changes.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates the entry lifecycle and balance queries.
type Service struct {
	repo  RepositoryPort
	cache CacheInvalidator
	now   func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, cache CacheInvalidator) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateEntry opens a draft entry with its initial movements.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:             uuid.New(),
		CompanyID:      input.CompanyID,
		Date:           input.Date,
		Type:           input.Type,
		CounterpartyID: input.CounterpartyID,
		CostCenterID:   input.CostCenterID,
		Status:         StatusDraft,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}
	movements := toMovements(entry.ID, input.Movements, s.now())
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if err := tx.InsertMovements(ctx, inserted.ID, movements); err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	entry.Movements = movements
	return entry, nil
}

// ReplaceMovements swaps the movement set of a draft entry. Applied and
// cancelled entries are frozen.
func (s *Service) ReplaceMovements(ctx context.Context, entryID uuid.UUID, inputs []MovementInput) (Entry, error) {
	if err := validateMovements(inputs); err != nil {
		return Entry{}, err
	}
	var entry Entry
	movements := toMovements(entryID, inputs, s.now())
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrNotDraft
		}
		if err := tx.DeleteMovements(ctx, entryID); err != nil {
			return err
		}
		if err := tx.InsertMovements(ctx, entryID, movements); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	entry.Movements = movements
	return entry, nil
}

// Apply freezes a draft entry and makes it count toward balances. The
// double-entry invariant is enforced here with the monetary tolerance, and
// the per-company sequence number is reserved atomically in the same
// transaction.
func (s *Service) Apply(ctx context.Context, entryID uuid.UUID) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return ErrInvalidStatus
		}
		movements, err := tx.GetMovements(ctx, entryID)
		if err != nil {
			return err
		}
		if len(movements) < 2 {
			return ErrTooFewMovements
		}
		totalDebit, totalCredit := decimal.Zero, decimal.Zero
		for _, m := range movements {
			totalDebit = totalDebit.Add(m.Debit)
			totalCredit = totalCredit.Add(m.Credit)
		}
		if !shared.WithinTolerance(totalDebit, totalCredit) {
			return ErrUnbalanced
		}
		number, err := tx.ReserveEntryNumber(ctx, current.CompanyID)
		if err != nil {
			return err
		}
		if err := tx.MarkApplied(ctx, entryID, number, totalDebit, totalCredit); err != nil {
			return err
		}
		current.Status = StatusApplied
		current.Number = number
		current.TotalDebit = totalDebit
		current.TotalCredit = totalCredit
		current.Movements = movements
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.bump(ctx)
	return entry, nil
}

// Cancel terminates an entry. Both drafts and applied entries may be
// cancelled; the state is terminal and the entry stays on record, excluded
// from balances.
func (s *Service) Cancel(ctx context.Context, entryID uuid.UUID) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status == StatusCancelled {
			return ErrInvalidStatus
		}
		if err := tx.MarkCancelled(ctx, entryID); err != nil {
			return err
		}
		current.Status = StatusCancelled
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.bump(ctx)
	return entry, nil
}

// Get fetches an entry with its movements.
func (s *Service) Get(ctx context.Context, entryID uuid.UUID) (Entry, error) {
	return s.repo.GetEntry(ctx, entryID)
}

// List returns a page of company entries ordered by number descending.
func (s *Service) List(ctx context.Context, companyID int64, page, perPage int) ([]Entry, shared.Pagination, error) {
	entries, total, err := s.repo.ListEntries(ctx, companyID, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(page, perPage, total), nil
}

// Snapshot assembles the company's in-memory books for the pure engine.
func (s *Service) Snapshot(ctx context.Context, companyID int64) (Snapshot, error) {
	return s.repo.LoadSnapshot(ctx, companyID)
}

// Balances runs the balance engine over the company snapshot.
func (s *Service) Balances(ctx context.Context, companyID int64, periodStart *time.Time, periodEnd time.Time) ([]Balance, error) {
	snap, err := s.repo.LoadSnapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return ComputeBalances(snap.Accounts, snap.Entries, snap.Movements, periodStart, periodEnd), nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func toMovements(entryID uuid.UUID, inputs []MovementInput, ts time.Time) []Movement {
	out := make([]Movement, 0, len(inputs))
	for i, in := range inputs {
		out = append(out, Movement{
			ID:           uuid.New(),
			EntryID:      entryID,
			AccountID:    in.AccountID,
			Debit:        in.Debit,
			Credit:       in.Credit,
			Description:  in.Description,
			Position:     i,
			BudgetLineID: in.BudgetLineID,
			CreatedAt:    ts,
			UpdatedAt:    ts,
		})
	}
	return out
}
