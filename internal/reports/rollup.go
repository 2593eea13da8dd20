package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/ledger"
	"github.com/contalibre/contalibre/internal/shared"
)

// Line pairs an account with its computed balance for report assembly.
type Line struct {
	Account coa.Account     `json:"account"`
	Balance ledger.Balance  `json:"balance"`
	Rubro   coa.Rubro       `json:"rubro"`
	Closing decimal.Decimal `json:"closing"`
}

// Subrubro groups lines sharing the leading code segment.
type Subrubro struct {
	Segment string          `json:"segment"`
	Label   string          `json:"label"`
	Lines   []Line          `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

// RubroGroup holds one rubro's lines and posting-only total.
type RubroGroup struct {
	Rubro     coa.Rubro       `json:"rubro"`
	Lines     []Line          `json:"lines"`
	Subrubros []Subrubro      `json:"subrubros"`
	Total     decimal.Decimal `json:"total"`
}

// Rollup is the full per-rubro aggregation of a balance run.
type Rollup struct {
	Groups map[coa.Rubro]RubroGroup `json:"groups"`
}

// BuildRollup partitions balances into the seven rubros, each sorted by code.
// Totals sum closing over posting accounts only; header accounts would double
// count their own descendants. Balances flagged unknown carry no account and
// are skipped here: the rollup reads the chart, not referential gaps.
func BuildRollup(tree *coa.Tree, balances []ledger.Balance) Rollup {
	byID := make(map[string]ledger.Balance, len(balances))
	for _, b := range balances {
		if !b.Unknown {
			byID[b.AccountID.String()] = b
		}
	}

	groups := make(map[coa.Rubro]RubroGroup, len(coa.Rubros))
	for _, rubro := range coa.Rubros {
		groups[rubro] = RubroGroup{Rubro: rubro}
	}

	for _, acc := range tree.Accounts() {
		balance, ok := byID[acc.ID.String()]
		if !ok {
			continue
		}
		rubro := coa.ClassifyRubro(acc.Code)
		group := groups[rubro]
		group.Lines = append(group.Lines, Line{
			Account: acc,
			Balance: balance,
			Rubro:   rubro,
			Closing: balance.Closing,
		})
		groups[rubro] = group
	}

	for rubro, group := range groups {
		sort.Slice(group.Lines, func(i, j int) bool {
			return coa.NormalizeCode(group.Lines[i].Account.Code) < coa.NormalizeCode(group.Lines[j].Account.Code)
		})
		group.Total = postingTotal(group.Lines)
		group.Subrubros = buildSubrubros(tree, group.Lines)
		groups[rubro] = group
	}
	return Rollup{Groups: groups}
}

// Total returns a rubro's posting-only closing total.
func (r Rollup) Total(rubro coa.Rubro) decimal.Decimal {
	return r.Groups[rubro].Total
}

func postingTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Account.IsPosting() {
			total = total.Add(l.Closing)
		}
	}
	return shared.Round2(total)
}

// buildSubrubros regroups lines by the leading three-digit segment. The label
// is the matching level-1 header account's name when present, otherwise the
// bare segment numeral.
func buildSubrubros(tree *coa.Tree, lines []Line) []Subrubro {
	bySegment := make(map[string]*Subrubro)
	var order []string
	for _, l := range lines {
		segment := coa.FirstSegment(l.Account.Code)
		sub, ok := bySegment[segment]
		if !ok {
			label := tree.HeaderName(segment)
			if label == "" {
				label = segment
			}
			sub = &Subrubro{Segment: segment, Label: label}
			bySegment[segment] = sub
			order = append(order, segment)
		}
		sub.Lines = append(sub.Lines, l)
	}
	sort.Strings(order)
	out := make([]Subrubro, 0, len(order))
	for _, segment := range order {
		sub := bySegment[segment]
		sub.Total = postingTotal(sub.Lines)
		out = append(out, *sub)
	}
	return out
}
