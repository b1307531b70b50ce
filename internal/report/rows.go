// Package report renders the ledger for people: chat summaries, the month
// close preview, help text, and the spreadsheet export.
package report

import (
	"gastos/internal/core"
)

// Header is the first row of every tabular export.
var Header = []string{
	"Owner",
	"Label",
	"Category",
	"TotalAmount",
	"InstallmentAmount",
	"InstallmentsRemaining",
	"PeriodOrDate",
}

// Row renders one record in Header order. Amounts are float64 so
// spreadsheets treat them as numbers; installment columns are empty for
// other categories.
func Row(r core.Record) []any {
	row := []any{
		r.Owner.DisplayName(),
		r.Label,
		r.Category.Label(),
		r.Amount.InexactFloat64(),
		"",
		"",
		r.PeriodOrDate(),
	}
	if r.IsInstallment() {
		row[4] = r.InstallmentAmount.InexactFloat64()
		row[5] = r.InstallmentsRemaining
	}
	return row
}

// Rows returns the header followed by one row per record in ledger order.
func Rows(l *core.Ledger) [][]any {
	out := make([][]any, 0, l.Len()+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	out = append(out, header)
	for _, r := range l.Records {
		out = append(out, Row(r))
	}
	return out
}
