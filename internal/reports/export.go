package reports

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Row builders emit plain CSV data for the presentation layer. Amounts are
// printed with es-MX grouping; the engine values stay exact decimals.
var printer = message.NewPrinter(language.MustParse("es-MX"))

func formatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

// TrialBalanceRows converts a trial balance into CSV records with a header
// and a footer line.
func TrialBalanceRows(tb TrialBalance) [][]string {
	rows := [][]string{{"Cuenta", "Nombre", "Saldo inicial", "Cargos", "Abonos", "Saldo deudor", "Saldo acreedor"}}
	for _, r := range tb.Rows {
		rows = append(rows, []string{
			r.Code,
			r.Name,
			formatAmount(r.Opening),
			formatAmount(r.PeriodDebit),
			formatAmount(r.PeriodCredit),
			formatAmount(r.ClosingDebit),
			formatAmount(r.ClosingCredit),
		})
	}
	rows = append(rows, []string{"Totales", "", "", formatAmount(tb.TotalDebit), formatAmount(tb.TotalCredit), "", ""})
	return rows
}

// BalanceSheetRows flattens the balance sheet sections into CSV records. The
// equity total row reflects TotalEquity, utilidad included.
func BalanceSheetRows(bs BalanceSheet) [][]string {
	rows := [][]string{{"Seccion", "Subrubro", "Total"}}
	rows = appendSectionRows(rows, "Activo", bs.Assets)
	rows = appendSectionRows(rows, "Pasivo", bs.Liabilities)
	for _, sub := range bs.Equity.Subrubros {
		rows = append(rows, []string{"Capital", sub.Label, formatAmount(sub.Total)})
	}
	rows = append(rows,
		[]string{"Capital", "Utilidad del ejercicio", formatAmount(bs.Utilidad)},
		[]string{"Capital", "Total", formatAmount(bs.TotalEquity)},
	)
	return rows
}

func appendSectionRows(rows [][]string, section string, s Section) [][]string {
	for _, sub := range s.Subrubros {
		rows = append(rows, []string{section, sub.Label, formatAmount(sub.Total)})
	}
	return append(rows, []string{section, "Total", formatAmount(s.Total)})
}

// IncomeStatementRows flattens the income statement into CSV records.
func IncomeStatementRows(is IncomeStatement) [][]string {
	rows := [][]string{{"Concepto", "Importe"}}
	rows = append(rows,
		[]string{"Ingresos", formatAmount(is.Revenue.Total)},
		[]string{"Costos", formatAmount(is.Cost.Total)},
		[]string{"Utilidad bruta", formatAmount(is.GrossProfit)},
		[]string{"Gastos", formatAmount(is.Expense.Total)},
		[]string{"Utilidad de operacion", formatAmount(is.OperatingProfit)},
		[]string{"Utilidad neta", formatAmount(is.NetProfit)},
	)
	return rows
}

// CashFlowRows flattens the cash flow into CSV records.
func CashFlowRows(cf CashFlow) [][]string {
	return [][]string{
		{"Concepto", "Importe"},
		{"Operacion", formatAmount(cf.Operating)},
		{"Inversion", formatAmount(cf.Investing)},
		{"Financiamiento", formatAmount(cf.Financing)},
		{"Flujo neto", formatAmount(cf.NetFlow)},
		{"Efectivo inicial", formatAmount(cf.OpeningCash)},
		{"Efectivo final", formatAmount(cf.ClosingCash)},
	}
}

// WriteCSV serialises prepared records to the writer.
func WriteCSV(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
