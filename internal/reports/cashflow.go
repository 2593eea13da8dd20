package reports

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/ledger"
	"github.com/contalibre/contalibre/internal/shared"
)

// CashFlow is an indirect-method approximation, not a true two-period
// reconciliation. Operating activity is taken as the net profit, investing as
// the net credit movement on fixed and deferred asset accounts, financing as
// the net credit movement on liabilities and equity. Opening and closing cash
// sum the accounts recognized as cash or bank.
type CashFlow struct {
	Operating   decimal.Decimal `json:"operating"`
	Investing   decimal.Decimal `json:"investing"`
	Financing   decimal.Decimal `json:"financing"`
	NetFlow     decimal.Decimal `json:"netFlow"`
	OpeningCash decimal.Decimal `json:"openingCash"`
	ClosingCash decimal.Decimal `json:"closingCash"`
}

var cashKeywords = []string{"caja", "banco", "cash", "bank"}

// isCashAccount recognizes cash and bank accounts by code prefix or name
// keyword. The 100 block is the customary place for liquid assets in the
// chart layout this system targets.
func isCashAccount(acc coa.Account) bool {
	switch coa.FirstSegment(acc.Code) {
	case "100", "101", "102":
		return true
	}
	name := strings.ToLower(acc.Name)
	for _, kw := range cashKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// isInvestingAccount flags fixed and deferred assets by the second digit of
// the leading segment (120-139 style blocks).
func isInvestingAccount(acc coa.Account) bool {
	if coa.ClassifyRubro(acc.Code) != coa.RubroAsset {
		return false
	}
	segment := coa.FirstSegment(acc.Code)
	if len(segment) < 2 {
		return false
	}
	return segment[1] == '2' || segment[1] == '3'
}

// BuildCashFlow assembles the indirect cash flow from a rollup and the net
// profit computed for the same period.
func BuildCashFlow(tree *coa.Tree, balances []ledger.Balance, netProfit decimal.Decimal) CashFlow {
	cf := CashFlow{
		Operating:   netProfit,
		Investing:   decimal.Zero,
		Financing:   decimal.Zero,
		OpeningCash: decimal.Zero,
		ClosingCash: decimal.Zero,
	}
	for _, b := range balances {
		if b.Unknown {
			continue
		}
		node, ok := tree.ByID(b.AccountID.String())
		if !ok {
			continue
		}
		acc := node.Account
		if !acc.IsPosting() {
			continue
		}
		net := b.PeriodCredit.Sub(b.PeriodDebit)
		switch {
		case isInvestingAccount(acc):
			cf.Investing = cf.Investing.Add(net)
		case coa.ClassifyRubro(acc.Code) == coa.RubroLiability, coa.ClassifyRubro(acc.Code) == coa.RubroEquity:
			cf.Financing = cf.Financing.Add(net)
		}
		if isCashAccount(acc) {
			cf.OpeningCash = cf.OpeningCash.Add(b.Opening)
			cf.ClosingCash = cf.ClosingCash.Add(b.Closing)
		}
	}
	cf.Investing = shared.Round2(cf.Investing)
	cf.Financing = shared.Round2(cf.Financing)
	cf.NetFlow = shared.Round2(cf.Operating.Add(cf.Investing).Add(cf.Financing))
	cf.OpeningCash = shared.Round2(cf.OpeningCash)
	cf.ClosingCash = shared.Round2(cf.ClosingCash)
	return cf
}
