package budget

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("es-MX"))

func formatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

// ExecutionRows converts execution results into CSV records.
func ExecutionRows(executions []Execution) [][]string {
	rows := [][]string{{"Concepto", "Presupuesto", "Ejercido", "Por ejercer", "Porcentaje", "Estado"}}
	for _, ex := range executions {
		rows = append(rows, []string{
			ex.Line.Concept,
			formatAmount(ex.Budgeted),
			formatAmount(ex.Ejercido),
			formatAmount(ex.PorEjercer),
			formatAmount(ex.Percentage),
			string(ex.Status),
		})
	}
	return rows
}

// ProjectionRows converts the projection matrix into CSV records, one column
// per month plus the totals block.
func ProjectionRows(p Projection) [][]string {
	header := []string{"Concepto"}
	for _, m := range p.Months {
		header = append(header, fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)))
	}
	rows := [][]string{header}
	for _, lp := range p.Lines {
		row := []string{lp.Line.Concept}
		for _, amt := range lp.Amounts {
			row = append(row, formatAmount(amt))
		}
		rows = append(rows, row)
	}
	for _, block := range []struct {
		label  string
		values []decimal.Decimal
	}{
		{"Entradas", p.Inflow},
		{"Salidas", p.Outflow},
		{"Flujo neto", p.Net},
		{"Acumulado", p.Cumulative},
	} {
		row := []string{block.label}
		for _, amt := range block.values {
			row = append(row, formatAmount(amt))
		}
		rows = append(rows, row)
	}
	return rows
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
