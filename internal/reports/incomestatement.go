package reports

import (
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/shared"
)

// IncomeStatement presents revenue, cost and expense with derived margins.
// Net profit equals operating profit: tax provisioning is not modeled.
type IncomeStatement struct {
	Revenue         Section         `json:"revenue"`
	Cost            Section         `json:"cost"`
	Expense         Section         `json:"expense"`
	GrossProfit     decimal.Decimal `json:"grossProfit"`
	OperatingProfit decimal.Decimal `json:"operatingProfit"`
	NetProfit       decimal.Decimal `json:"netProfit"`
}

// BuildIncomeStatement derives the income statement from a rollup.
func BuildIncomeStatement(rollup Rollup) IncomeStatement {
	is := IncomeStatement{
		Revenue: toSection(rollup.Groups[coa.RubroRevenue]),
		Cost:    toSection(rollup.Groups[coa.RubroCost]),
		Expense: toSection(rollup.Groups[coa.RubroExpense]),
	}
	is.GrossProfit = shared.Round2(is.Revenue.Total.Sub(is.Cost.Total))
	is.OperatingProfit = shared.Round2(is.GrossProfit.Sub(is.Expense.Total))
	is.NetProfit = is.OperatingProfit
	return is
}
