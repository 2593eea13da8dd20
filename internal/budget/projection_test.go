package budget

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
)

func monthIndex(p Projection, year int, month time.Month) int {
	for i, m := range p.Months {
		if m.Year == year && m.Month == month {
			return i
		}
	}
	return -1
}

func projectionTree() (*coa.Tree, coa.Account, coa.Account) {
	ventas := coa.Account{ID: uuid.New(), Code: "400-001-000-000", Name: "Ventas", Classification: coa.ClassificationPosting}
	gastos := coa.Account{ID: uuid.New(), Code: "600-001-000-000", Name: "Gastos", Classification: coa.ClassificationPosting}
	return coa.NewTree([]coa.Account{ventas, gastos}), ventas, gastos
}

func windowed(accountID uuid.UUID, freq Frequency, amt string, start, end time.Time) Line {
	return Line{
		ID:        uuid.New(),
		CompanyID: 1,
		AccountID: accountID,
		Concept:   "linea",
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: amount(amt),
		Start:     &start,
		End:       &end,
		Frequency: freq,
		Active:    true,
	}
}

func TestProjectMonthlyLine(t *testing.T) {
	tree, ventas, _ := projectionTree()
	line := windowed(ventas.ID, FrequencyMonthly, "100.00",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))

	p := Project([]Line{line}, tree, []int{2025})
	if len(p.Months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(p.Months))
	}
	lp := p.Lines[0]
	for m := time.January; m <= time.March; m++ {
		if !lp.Amounts[monthIndex(p, 2025, m)].Equal(amount("100.00")) {
			t.Fatalf("%s amount = %s, want 100.00", m, lp.Amounts[monthIndex(p, 2025, m)])
		}
	}
	if !lp.Amounts[monthIndex(p, 2025, time.April)].IsZero() {
		t.Fatal("amount outside window must be zero")
	}
	if lp.Direction != DirectionInflow {
		t.Fatalf("revenue line direction = %s, want INFLOW", lp.Direction)
	}
}

func TestProjectWeeklyApproximation(t *testing.T) {
	tree, _, gastos := projectionTree()
	line := windowed(gastos.ID, FrequencyWeekly, "25.00",
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC))

	p := Project([]Line{line}, tree, []int{2025})
	got := p.Lines[0].Amounts[monthIndex(p, 2025, time.June)]
	if !got.Equal(amount("100.00")) {
		t.Fatalf("weekly month amount = %s, want 100.00 (4 occurrences)", got)
	}
	if p.Lines[0].Direction != DirectionOutflow {
		t.Fatalf("expense line direction = %s, want OUTFLOW", p.Lines[0].Direction)
	}
}

func TestProjectQuarterlyAlignment(t *testing.T) {
	tree, _, gastos := projectionTree()
	line := windowed(gastos.ID, FrequencyQuarterly, "300.00",
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))

	p := Project([]Line{line}, tree, []int{2025})
	lp := p.Lines[0]
	hits := map[time.Month]bool{time.February: true, time.May: true, time.August: true, time.November: true}
	for m := time.January; m <= time.December; m++ {
		got := lp.Amounts[monthIndex(p, 2025, m)]
		if hits[m] && !got.Equal(amount("300.00")) {
			t.Fatalf("%s = %s, want 300.00", m, got)
		}
		if !hits[m] && !got.IsZero() {
			t.Fatalf("%s = %s, want 0", m, got)
		}
	}
}

func TestProjectCumulativeCarriesAcrossYears(t *testing.T) {
	tree, ventas, gastos := projectionTree()
	inflow := windowed(ventas.ID, FrequencyMonthly, "100.00",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
	outflow := windowed(gastos.ID, FrequencyMonthly, "40.00",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))

	p := Project([]Line{inflow, outflow}, tree, []int{2025, 2026})
	if len(p.Months) != 24 {
		t.Fatalf("expected 24 months, got %d", len(p.Months))
	}
	dec := monthIndex(p, 2025, time.December)
	jan := monthIndex(p, 2026, time.January)
	if !p.Cumulative[dec].Equal(amount("720.00")) {
		t.Fatalf("cumulative at 2025-12 = %s, want 720.00", p.Cumulative[dec])
	}
	// No reset at the year boundary.
	if !p.Cumulative[jan].Equal(amount("780.00")) {
		t.Fatalf("cumulative at 2026-01 = %s, want 780.00", p.Cumulative[jan])
	}
	if !p.Continuous {
		t.Fatal("adjacent years are a contiguous selection")
	}
}

func TestProjectNonContiguousYearsExpandContinuously(t *testing.T) {
	tree, ventas, _ := projectionTree()
	line := windowed(ventas.ID, FrequencyMonthly, "10.00",
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))

	p := Project([]Line{line}, tree, []int{2024, 2026})
	if len(p.Months) != 36 {
		t.Fatalf("expected 36 months spanning 2024-2026, got %d", len(p.Months))
	}
	if p.Continuous {
		t.Fatal("2024,2026 selection skips 2025 and must flag Continuous=false")
	}
	if idx := monthIndex(p, 2025, time.June); !p.Lines[0].Amounts[idx].Equal(amount("10.00")) {
		t.Fatal("intervening year months must still project")
	}
}

func TestProjectSkipsInactiveLines(t *testing.T) {
	tree, ventas, _ := projectionTree()
	line := windowed(ventas.ID, FrequencyMonthly, "10.00",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	line.Active = false

	p := Project([]Line{line}, tree, []int{2025})
	if len(p.Lines) != 0 {
		t.Fatal("inactive lines must not project")
	}
}

func TestMonthsForYearsEmpty(t *testing.T) {
	months, contiguous := MonthsForYears(nil)
	if months != nil || !contiguous {
		t.Fatal("empty selection yields empty timeline")
	}
}
