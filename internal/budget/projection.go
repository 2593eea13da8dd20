package budget

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/shared"
)

// Direction classifies a projected line as money coming in or going out.
// It depends on the account code's leading digit only and is independent of
// the debit or credit normal side.
type Direction string

const (
	DirectionInflow  Direction = "INFLOW"
	DirectionOutflow Direction = "OUTFLOW"
)

// DirectionFor maps a code's leading digit to a flow direction: assets and
// revenue bring cash in, everything else takes it out.
func DirectionFor(code string) Direction {
	normalized := coa.NormalizeCode(code)
	switch normalized[0] {
	case '1', '4':
		return DirectionInflow
	default:
		return DirectionOutflow
	}
}

// Month is one calendar month in a projection timeline.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// MonthsForYears expands the selected years into one continuous month
// sequence from January of the earliest year through December of the latest.
// The second result reports whether the selection itself was contiguous;
// false means intervening unselected years were filled in so the cumulative
// balance stays meaningful.
func MonthsForYears(years []int) ([]Month, bool) {
	if len(years) == 0 {
		return nil, true
	}
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)
	minYear, maxYear := sorted[0], sorted[len(sorted)-1]

	selected := make(map[int]bool, len(sorted))
	for _, y := range sorted {
		selected[y] = true
	}
	contiguous := true
	for y := minYear; y <= maxYear; y++ {
		if !selected[y] {
			contiguous = false
			break
		}
	}

	months := make([]Month, 0, (maxYear-minYear+1)*12)
	for y := minYear; y <= maxYear; y++ {
		for m := time.January; m <= time.December; m++ {
			months = append(months, Month{Year: y, Month: m})
		}
	}
	return months, contiguous
}

// LineProjection is one line's amount per month of the timeline.
type LineProjection struct {
	Line      Line              `json:"line"`
	Direction Direction         `json:"direction"`
	Amounts   []decimal.Decimal `json:"amounts"`
}

// Projection is the line-by-month matrix with per-month totals and a running
// cumulative balance across the whole timeline.
type Projection struct {
	Months     []Month           `json:"months"`
	Lines      []LineProjection  `json:"lines"`
	Inflow     []decimal.Decimal `json:"inflow"`
	Outflow    []decimal.Decimal `json:"outflow"`
	Net        []decimal.Decimal `json:"net"`
	Cumulative []decimal.Decimal `json:"cumulative"`
	// Continuous is false when unselected years were expanded to keep the
	// month sequence gap-free.
	Continuous bool `json:"continuous"`
}

const weeksPerMonth = 4

// Project distributes active budget lines across the timeline spanned by the
// requested years. Weekly lines approximate four occurrences per month;
// periodic lines land only on months aligned with their window start. The
// cumulative balance never resets at year boundaries.
func Project(lines []Line, tree *coa.Tree, years []int) Projection {
	months, contiguous := MonthsForYears(years)
	p := Projection{
		Months:     months,
		Inflow:     zeroRow(len(months)),
		Outflow:    zeroRow(len(months)),
		Net:        zeroRow(len(months)),
		Cumulative: zeroRow(len(months)),
		Continuous: contiguous,
	}
	if len(months) == 0 {
		return p
	}
	firstIndex := months[0].index()

	for _, line := range lines {
		if !line.Active {
			continue
		}
		code := ""
		if node, ok := tree.ByID(line.AccountID.String()); ok {
			code = node.Account.Code
		}
		lp := LineProjection{
			Line:      line,
			Direction: DirectionFor(code),
			Amounts:   zeroRow(len(months)),
		}
		budgeted := line.Budgeted()
		startIdx, endIdx := lineWindow(line, firstIndex, months[len(months)-1].index())
		period := line.Frequency.PeriodMonths()

		for i, month := range months {
			idx := month.index()
			if idx < startIdx || idx > endIdx {
				continue
			}
			switch {
			case line.Frequency == FrequencyWeekly:
				lp.Amounts[i] = shared.Round2(budgeted.Mul(decimal.NewFromInt(weeksPerMonth)))
			case line.Frequency == FrequencyMonthly:
				lp.Amounts[i] = budgeted
			case period > 0 && (idx-startIdx)%period == 0:
				lp.Amounts[i] = budgeted
			}
			if lp.Direction == DirectionInflow {
				p.Inflow[i] = p.Inflow[i].Add(lp.Amounts[i])
			} else {
				p.Outflow[i] = p.Outflow[i].Add(lp.Amounts[i])
			}
		}
		p.Lines = append(p.Lines, lp)
	}

	running := decimal.Zero
	for i := range months {
		p.Inflow[i] = shared.Round2(p.Inflow[i])
		p.Outflow[i] = shared.Round2(p.Outflow[i])
		p.Net[i] = p.Inflow[i].Sub(p.Outflow[i])
		running = running.Add(p.Net[i])
		p.Cumulative[i] = running
	}
	return p
}

// lineWindow clamps a line's validity window to month indexes. A missing
// start anchors recurrence at the timeline's first month.
func lineWindow(line Line, firstIndex, lastIndex int) (int, int) {
	start := firstIndex
	if line.Start != nil {
		start = Month{Year: line.Start.Year(), Month: line.Start.Month()}.index()
	}
	end := lastIndex
	if line.End != nil {
		end = Month{Year: line.End.Year(), Month: line.End.Month()}.index()
	}
	return start, end
}

func zeroRow(n int) []decimal.Decimal {
	row := make([]decimal.Decimal, n)
	for i := range row {
		row[i] = decimal.Zero
	}
	return row
}
