package budget

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/ledger"
	"github.com/contalibre/contalibre/internal/shared"
)

// Execution is the realized-vs-budgeted result for one line.
type Execution struct {
	Line       Line            `json:"line"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Ejercido   decimal.Decimal `json:"ejercido"`
	PorEjercer decimal.Decimal `json:"porEjercer"`
	Percentage decimal.Decimal `json:"percentage"`
	Status     ExecutionStatus `json:"status"`
}

var hundred = decimal.NewFromInt(100)
var eighty = decimal.NewFromInt(80)

// MatchExecution computes each line's realized amount from movements tagged
// with the line id whose owning entry is applied. The realized side, debit or
// credit, follows the line account's normal side; accounts missing from the
// chart fall back to debit-normal.
func MatchExecution(lines []Line, tree *coa.Tree, entries []ledger.Entry, movements []ledger.Movement) []Execution {
	applied := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		if e.Status == ledger.StatusApplied {
			applied[e.ID] = true
		}
	}

	type tagged struct{ debit, credit decimal.Decimal }
	sums := make(map[uuid.UUID]*tagged)
	for _, m := range movements {
		if m.BudgetLineID == nil || !applied[m.EntryID] {
			continue
		}
		s := sums[*m.BudgetLineID]
		if s == nil {
			s = &tagged{}
			sums[*m.BudgetLineID] = s
		}
		s.debit = s.debit.Add(m.Debit)
		s.credit = s.credit.Add(m.Credit)
	}

	out := make([]Execution, 0, len(lines))
	for _, line := range lines {
		budgeted := line.Budgeted()
		ejercido := decimal.Zero
		if s := sums[line.ID]; s != nil {
			debitNormal := true
			if node, ok := tree.ByID(line.AccountID.String()); ok {
				debitNormal = coa.IsDebitNormal(node.Account)
			}
			if debitNormal {
				ejercido = s.debit
			} else {
				ejercido = s.credit
			}
		}
		ejercido = shared.Round2(ejercido)

		// Division by zero yields 0, never NaN or infinity.
		percentage := decimal.Zero
		if !budgeted.IsZero() {
			percentage = ejercido.Div(budgeted).Mul(hundred).Round(2)
		}

		out = append(out, Execution{
			Line:       line,
			Budgeted:   budgeted,
			Ejercido:   ejercido,
			PorEjercer: shared.Round2(budgeted.Sub(ejercido)),
			Percentage: percentage,
			Status:     statusFor(percentage, line.Active),
		})
	}
	return out
}

// statusFor buckets a percentage. Boundary values 80 and 100 resolve to the
// higher-severity bucket.
func statusFor(percentage decimal.Decimal, active bool) ExecutionStatus {
	switch {
	case percentage.GreaterThan(hundred):
		return StatusOverrun
	case percentage.GreaterThanOrEqual(eighty):
		return StatusWarning
	case active:
		return StatusOnTrack
	default:
		return StatusInactive
	}
}
