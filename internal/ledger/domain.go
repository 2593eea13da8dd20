package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
)

// EntryStatus enumerates the journal entry lifecycle.
type EntryStatus string

const (
	// StatusDraft marks a freshly created entry whose movements are mutable.
	StatusDraft EntryStatus = "DRAFT"
	// StatusApplied marks a frozen entry that counts toward balances.
	StatusApplied EntryStatus = "APPLIED"
	// StatusCancelled marks a terminal entry excluded from balances but retained.
	StatusCancelled EntryStatus = "CANCELLED"
)

// Entry captures journal posting metadata.
type Entry struct {
	ID             uuid.UUID
	CompanyID      int64
	Date           time.Time
	Type           string
	CounterpartyID *int64
	CostCenterID   *int64
	Number         int64
	Status         EntryStatus
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Movements      []Movement
}

// Movement stores a debit or credit amount against one account. A movement
// belongs to exactly one entry.
type Movement struct {
	ID           uuid.UUID
	EntryID      uuid.UUID
	AccountID    uuid.UUID
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Description  string
	Position     int
	BudgetLineID *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Balance aggregates an account's movements over a period.
type Balance struct {
	AccountID    uuid.UUID       `json:"accountId"`
	Opening      decimal.Decimal `json:"opening"`
	PeriodDebit  decimal.Decimal `json:"periodDebit"`
	PeriodCredit decimal.Decimal `json:"periodCredit"`
	Closing      decimal.Decimal `json:"closing"`
	// Unknown flags a movement reference that resolves to no chart entry.
	// The store is responsible for referential integrity; the engine only
	// surfaces the gap instead of failing.
	Unknown bool `json:"unknown,omitempty"`
}

// Snapshot is an internally consistent in-memory read of a company's books.
// The engine computes against fully settled snapshots only; assembling them
// (including looping over store page limits) is the repository's job.
type Snapshot struct {
	Accounts  []coa.Account
	Entries   []Entry
	Movements []Movement
}

var (
	// ErrEntryNotFound indicates a missing entry.
	ErrEntryNotFound = errors.New("ledger: entry not found")
	// ErrNotDraft indicates movements were mutated outside the draft state.
	ErrNotDraft = errors.New("ledger: entry is not draft")
	// ErrInvalidStatus indicates a lifecycle transition that is not allowed.
	ErrInvalidStatus = errors.New("ledger: invalid status transition")
	// ErrUnbalanced indicates debit != credit at apply time.
	ErrUnbalanced = errors.New("ledger: entry movements must balance")
	// ErrTooFewMovements indicates less than two movements.
	ErrTooFewMovements = errors.New("ledger: entry requires at least two movements")
)

// MovementInput describes one movement for entry creation or replacement.
type MovementInput struct {
	AccountID    uuid.UUID
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Description  string
	BudgetLineID *uuid.UUID
}

// CreateEntryInput groups fields required to open a draft entry.
type CreateEntryInput struct {
	CompanyID      int64
	Date           time.Time
	Type           string
	CounterpartyID *int64
	CostCenterID   *int64
	Movements      []MovementInput
}

// Validate ensures entry input meets minimum criteria. Balance between debit
// and credit is not enforced here; drafts may be saved half-finished and are
// only checked when applied.
func (in CreateEntryInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("ledger: company required")
	}
	if in.Date.IsZero() {
		return errors.New("ledger: date required")
	}
	return validateMovements(in.Movements)
}

func validateMovements(movements []MovementInput) error {
	for idx, m := range movements {
		if m.AccountID == uuid.Nil {
			return fmt.Errorf("ledger: movement %d missing account", idx)
		}
		if m.Debit.IsNegative() || m.Credit.IsNegative() {
			return fmt.Errorf("ledger: movement %d negative amount", idx)
		}
		if m.Debit.IsPositive() && m.Credit.IsPositive() {
			return fmt.Errorf("ledger: movement %d cannot be both debit and credit", idx)
		}
	}
	return nil
}
