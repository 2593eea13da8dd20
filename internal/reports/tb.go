package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/ledger"
	"github.com/contalibre/contalibre/internal/shared"
)

// TrialBalanceFilter narrows the rows of a trial balance.
type TrialBalanceFilter struct {
	// MaxLevel drops accounts deeper than the given level; zero means no limit.
	MaxLevel int `json:"maxLevel"`
	// OnlyNonZero drops rows whose four columns are all zero.
	OnlyNonZero bool `json:"onlyNonZero"`
}

// TrialBalanceRow is one account line with the closing balance placed on the
// account's normal side.
type TrialBalanceRow struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Level         int             `json:"level"`
	Opening       decimal.Decimal `json:"opening"`
	PeriodDebit   decimal.Decimal `json:"periodDebit"`
	PeriodCredit  decimal.Decimal `json:"periodCredit"`
	ClosingDebit  decimal.Decimal `json:"closingDebit"`
	ClosingCredit decimal.Decimal `json:"closingCredit"`
}

// TrialBalance lists filtered account rows with a footer over applied
// movements. An unbalanced footer signals an upstream defect such as an
// unbalanced applied entry, not a user error, so it is reported with the
// signed difference instead of rejected.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	Balanced    bool              `json:"balanced"`
	Difference  decimal.Decimal   `json:"difference"`
}

// BuildTrialBalance composes the trial balance from a balance run. The footer
// sums period movement over every account including filtered-out rows, so the
// double-entry assertion holds regardless of presentation filters.
func BuildTrialBalance(tree *coa.Tree, balances []ledger.Balance, filter TrialBalanceFilter) TrialBalance {
	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, b := range balances {
		tb.TotalDebit = tb.TotalDebit.Add(b.PeriodDebit)
		tb.TotalCredit = tb.TotalCredit.Add(b.PeriodCredit)

		if b.Unknown {
			continue
		}
		node, ok := tree.ByID(b.AccountID.String())
		if !ok {
			continue
		}
		acc := node.Account
		if filter.MaxLevel > 0 && acc.Level > filter.MaxLevel {
			continue
		}
		if filter.OnlyNonZero && b.Opening.IsZero() && b.PeriodDebit.IsZero() && b.PeriodCredit.IsZero() && b.Closing.IsZero() {
			continue
		}
		row := TrialBalanceRow{
			Code:         acc.Code,
			Name:         acc.Name,
			Level:        acc.Level,
			Opening:      b.Opening,
			PeriodDebit:  b.PeriodDebit,
			PeriodCredit: b.PeriodCredit,
		}
		if coa.IsDebitNormal(acc) {
			row.ClosingDebit = b.Closing
			row.ClosingCredit = decimal.Zero
		} else {
			row.ClosingDebit = decimal.Zero
			row.ClosingCredit = b.Closing
		}
		tb.Rows = append(tb.Rows, row)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })

	tb.TotalDebit = shared.Round2(tb.TotalDebit)
	tb.TotalCredit = shared.Round2(tb.TotalCredit)
	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.Balanced = shared.WithinTolerance(tb.TotalDebit, tb.TotalCredit)
	return tb
}
