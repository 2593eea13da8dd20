package reports

import (
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/shared"
)

// Section is one balance sheet side broken into sub-rubros.
type Section struct {
	Rubro     coa.Rubro       `json:"rubro"`
	Subrubros []Subrubro      `json:"subrubros"`
	Total     decimal.Decimal `json:"total"`
}

// BalanceSheet holds the asset, liability and equity sections. Utilidad is
// the current period result injected synthetically into equity: earnings have
// not been posted as a real closing movement, so the sheet would never
// balance without it.
type BalanceSheet struct {
	Assets      Section         `json:"assets"`
	Liabilities Section         `json:"liabilities"`
	Equity      Section         `json:"equity"`
	Utilidad    decimal.Decimal `json:"utilidad"`
	TotalEquity decimal.Decimal `json:"totalEquity"`
	Balanced    bool            `json:"balanced"`
	Difference  decimal.Decimal `json:"difference"`
}

// BuildBalanceSheet assembles the sheet from a rollup. The accounting
// identity asset = liability + equity + utilidad is checked within the
// monetary tolerance and violations surface as balanced=false with the
// signed difference.
func BuildBalanceSheet(rollup Rollup) BalanceSheet {
	utilidad := shared.Round2(rollup.Total(coa.RubroRevenue).
		Sub(rollup.Total(coa.RubroCost)).
		Sub(rollup.Total(coa.RubroExpense)))

	bs := BalanceSheet{
		Assets:      toSection(rollup.Groups[coa.RubroAsset]),
		Liabilities: toSection(rollup.Groups[coa.RubroLiability]),
		Equity:      toSection(rollup.Groups[coa.RubroEquity]),
		Utilidad:    utilidad,
	}
	bs.TotalEquity = shared.Round2(bs.Equity.Total.Add(utilidad))
	bs.Difference = shared.Round2(bs.Assets.Total.Sub(bs.Liabilities.Total).Sub(bs.TotalEquity))
	bs.Balanced = bs.Difference.Abs().LessThanOrEqual(shared.Tolerance)
	return bs
}

func toSection(group RubroGroup) Section {
	return Section{Rubro: group.Rubro, Subrubros: group.Subrubros, Total: group.Total}
}
