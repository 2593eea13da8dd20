package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/shared"
)

// movementSums accumulates raw unsigned debit/credit sums split into the
// prior window (before periodStart) and the current window.
type movementSums struct {
	priorDebit   decimal.Decimal
	priorCredit  decimal.Decimal
	periodDebit  decimal.Decimal
	periodCredit decimal.Decimal
}

// ComputeBalances computes opening, period and closing balances per account
// over [periodStart, periodEnd], both bounds inclusive. Only movements of
// applied entries count; drafts and cancelled entries contribute nothing.
// A nil periodStart means no prior window: opening is zero and every applied
// movement up to periodEnd falls into the current window. Accounts without
// movements still yield a zero-valued record.
//
// The function is pure: it reads the supplied snapshot collections only and
// is safe to memoize per (company, periodStart, periodEnd).
func ComputeBalances(accounts []coa.Account, entries []Entry, movements []Movement, periodStart *time.Time, periodEnd time.Time) []Balance {
	appliedDates := make(map[uuid.UUID]time.Time, len(entries))
	for _, e := range entries {
		if e.Status == StatusApplied {
			appliedDates[e.ID] = e.Date
		}
	}

	sums := make(map[uuid.UUID]*movementSums)
	for _, m := range movements {
		date, ok := appliedDates[m.EntryID]
		if !ok {
			continue
		}
		s := sums[m.AccountID]
		if s == nil {
			s = &movementSums{}
			sums[m.AccountID] = s
		}
		switch {
		case periodStart != nil && date.Before(*periodStart):
			s.priorDebit = s.priorDebit.Add(m.Debit)
			s.priorCredit = s.priorCredit.Add(m.Credit)
		case !date.After(periodEnd):
			s.periodDebit = s.periodDebit.Add(m.Debit)
			s.periodCredit = s.periodCredit.Add(m.Credit)
		}
	}

	known := make(map[uuid.UUID]bool, len(accounts))
	ordered := make([]coa.Account, len(accounts))
	copy(ordered, accounts)
	sort.Slice(ordered, func(i, j int) bool {
		return coa.NormalizeCode(ordered[i].Code) < coa.NormalizeCode(ordered[j].Code)
	})

	balances := make([]Balance, 0, len(ordered))
	for _, acc := range ordered {
		known[acc.ID] = true
		s := sums[acc.ID]
		if s == nil {
			s = &movementSums{}
		}
		balances = append(balances, buildBalance(acc.ID, s, coa.IsDebitNormal(acc), false))
	}

	// Movements referencing no chart entry are reported as unknown accounts
	// rather than dropped or crashed on; the debit-normal convention is the
	// fallback since no nature or code is available.
	var unknownIDs []uuid.UUID
	for id := range sums {
		if !known[id] {
			unknownIDs = append(unknownIDs, id)
		}
	}
	sort.Slice(unknownIDs, func(i, j int) bool { return unknownIDs[i].String() < unknownIDs[j].String() })
	for _, id := range unknownIDs {
		balances = append(balances, buildBalance(id, sums[id], true, true))
	}
	return balances
}

func buildBalance(accountID uuid.UUID, s *movementSums, debitNormal, unknown bool) Balance {
	var opening decimal.Decimal
	if debitNormal {
		opening = s.priorDebit.Sub(s.priorCredit)
	} else {
		opening = s.priorCredit.Sub(s.priorDebit)
	}
	var closing decimal.Decimal
	if debitNormal {
		closing = opening.Add(s.periodDebit).Sub(s.periodCredit)
	} else {
		closing = opening.Add(s.periodCredit).Sub(s.periodDebit)
	}
	return Balance{
		AccountID:    accountID,
		Opening:      shared.Round2(opening),
		PeriodDebit:  shared.Round2(s.periodDebit),
		PeriodCredit: shared.Round2(s.periodCredit),
		Closing:      shared.Round2(closing),
		Unknown:      unknown,
	}
}
