package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type ledgerFixture struct {
	caja      coa.Account
	capital   coa.Account
	ventas    coa.Account
	accounts  []coa.Account
	entries   []Entry
	movements []Movement
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		caja:    coa.Account{ID: uuid.New(), Code: "100-001-000-000", Name: "Caja", Nature: coa.NatureDebit},
		capital: coa.Account{ID: uuid.New(), Code: "300-001-000-000", Name: "Capital social", Nature: coa.NatureCredit},
		ventas:  coa.Account{ID: uuid.New(), Code: "400-001-000-000", Name: "Ventas", Nature: coa.NatureCredit},
	}
	f.accounts = []coa.Account{f.caja, f.capital, f.ventas}
	return f
}

func (f *ledgerFixture) addEntry(day time.Time, status EntryStatus, lines ...Movement) {
	entryID := uuid.New()
	f.entries = append(f.entries, Entry{ID: entryID, CompanyID: 1, Date: day, Status: status})
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].EntryID = entryID
		lines[i].Position = i
	}
	f.movements = append(f.movements, lines...)
}

func findBalance(t *testing.T, balances []Balance, accountID uuid.UUID) Balance {
	t.Helper()
	for _, b := range balances {
		if b.AccountID == accountID {
			return b
		}
	}
	t.Fatalf("no balance for account %s", accountID)
	return Balance{}
}

func TestComputeBalancesMinimalLedger(t *testing.T) {
	f := newLedgerFixture()
	f.addEntry(date(2025, time.January, 15), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("1000.00"), Credit: decimal.Zero},
		Movement{AccountID: f.capital.ID, Debit: decimal.Zero, Credit: amount("1000.00")},
	)

	start := date(2025, time.January, 1)
	balances := ComputeBalances(f.accounts, f.entries, f.movements, &start, date(2025, time.December, 31))

	caja := findBalance(t, balances, f.caja.ID)
	if !caja.Opening.IsZero() || !caja.PeriodDebit.Equal(amount("1000.00")) || !caja.Closing.Equal(amount("1000.00")) {
		t.Fatalf("unexpected caja balance: %+v", caja)
	}
	capital := findBalance(t, balances, f.capital.ID)
	if !capital.PeriodCredit.Equal(amount("1000.00")) || !capital.Closing.Equal(amount("1000.00")) {
		t.Fatalf("unexpected capital balance: %+v", capital)
	}
}

func TestComputeBalancesSkipsDraftsAndCancelled(t *testing.T) {
	f := newLedgerFixture()
	f.addEntry(date(2025, time.March, 1), StatusDraft,
		Movement{AccountID: f.caja.ID, Debit: amount("50.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("50.00")},
	)
	f.addEntry(date(2025, time.March, 2), StatusCancelled,
		Movement{AccountID: f.caja.ID, Debit: amount("75.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("75.00")},
	)

	balances := ComputeBalances(f.accounts, f.entries, f.movements, nil, date(2025, time.December, 31))
	for _, b := range balances {
		if !b.Opening.IsZero() || !b.PeriodDebit.IsZero() || !b.PeriodCredit.IsZero() || !b.Closing.IsZero() {
			t.Fatalf("non-applied entry leaked into balances: %+v", b)
		}
	}
}

func TestComputeBalancesPriorWindowFeedsOpening(t *testing.T) {
	f := newLedgerFixture()
	f.addEntry(date(2024, time.November, 10), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("500.00"), Credit: decimal.Zero},
		Movement{AccountID: f.capital.ID, Debit: decimal.Zero, Credit: amount("500.00")},
	)
	f.addEntry(date(2025, time.February, 5), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("200.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("200.00")},
	)

	start := date(2025, time.January, 1)
	balances := ComputeBalances(f.accounts, f.entries, f.movements, &start, date(2025, time.December, 31))

	caja := findBalance(t, balances, f.caja.ID)
	if !caja.Opening.Equal(amount("500.00")) {
		t.Fatalf("opening = %s, want 500.00", caja.Opening)
	}
	if !caja.PeriodDebit.Equal(amount("200.00")) {
		t.Fatalf("period debit = %s, want 200.00", caja.PeriodDebit)
	}
	if !caja.Closing.Equal(amount("700.00")) {
		t.Fatalf("closing = %s, want 700.00", caja.Closing)
	}
	// The 2024 entry never shows in period columns.
	capital := findBalance(t, balances, f.capital.ID)
	if !capital.PeriodCredit.IsZero() || !capital.Opening.Equal(amount("500.00")) {
		t.Fatalf("unexpected capital balance: %+v", capital)
	}
}

func TestComputeBalancesInclusiveBounds(t *testing.T) {
	f := newLedgerFixture()
	f.addEntry(date(2025, time.January, 1), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("10.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("10.00")},
	)
	f.addEntry(date(2025, time.January, 31), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("20.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("20.00")},
	)
	f.addEntry(date(2025, time.February, 1), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("40.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("40.00")},
	)

	start := date(2025, time.January, 1)
	balances := ComputeBalances(f.accounts, f.entries, f.movements, &start, date(2025, time.January, 31))

	caja := findBalance(t, balances, f.caja.ID)
	if !caja.PeriodDebit.Equal(amount("30.00")) {
		t.Fatalf("period debit = %s, want 30.00 (both boundary days in, February out)", caja.PeriodDebit)
	}
}

func TestComputeBalancesZeroRecordsAndOrdering(t *testing.T) {
	f := newLedgerFixture()
	balances := ComputeBalances(f.accounts, f.entries, f.movements, nil, date(2025, time.December, 31))
	if len(balances) != 3 {
		t.Fatalf("expected a record per account, got %d", len(balances))
	}
	if balances[0].AccountID != f.caja.ID || balances[1].AccountID != f.capital.ID || balances[2].AccountID != f.ventas.ID {
		t.Fatal("balances not ordered by account code")
	}
}

func TestComputeBalancesUnknownAccount(t *testing.T) {
	f := newLedgerFixture()
	ghost := uuid.New()
	f.addEntry(date(2025, time.June, 1), StatusApplied,
		Movement{AccountID: ghost, Debit: amount("5.00"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("5.00")},
	)

	balances := ComputeBalances(f.accounts, f.entries, f.movements, nil, date(2025, time.December, 31))
	if len(balances) != 4 {
		t.Fatalf("expected 3 chart records plus 1 unknown, got %d", len(balances))
	}
	last := balances[len(balances)-1]
	if last.AccountID != ghost || !last.Unknown {
		t.Fatalf("unknown account not surfaced last: %+v", last)
	}
	if !last.Closing.Equal(amount("5.00")) {
		t.Fatalf("unknown account closing = %s, want 5.00 (debit-normal fallback)", last.Closing)
	}
}

func TestComputeBalancesDoubleEntryInvariant(t *testing.T) {
	f := newLedgerFixture()
	f.addEntry(date(2025, time.April, 3), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: amount("120.50"), Credit: decimal.Zero},
		Movement{AccountID: f.ventas.ID, Debit: decimal.Zero, Credit: amount("120.50")},
	)
	f.addEntry(date(2025, time.April, 9), StatusApplied,
		Movement{AccountID: f.caja.ID, Debit: decimal.Zero, Credit: amount("30.25")},
		Movement{AccountID: f.capital.ID, Debit: amount("30.25"), Credit: decimal.Zero},
	)

	balances := ComputeBalances(f.accounts, f.entries, f.movements, nil, date(2025, time.December, 31))
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, b := range balances {
		totalDebit = totalDebit.Add(b.PeriodDebit)
		totalCredit = totalCredit.Add(b.PeriodCredit)
	}
	if !totalDebit.Equal(totalCredit) {
		t.Fatalf("period debits %s != credits %s", totalDebit, totalCredit)
	}
}
