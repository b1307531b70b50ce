package core

import "github.com/shopspring/decimal"

// SummaryLine is one record as listed in a month overview.
type SummaryLine struct {
	Position int // 1-based, display only
	Record   Record
	Amount   decimal.Decimal
}

// MonthOverview is the listing of the ledger for the current period.
type MonthOverview struct {
	Period PeriodKey
	Lines  []SummaryLine
	Total  decimal.Decimal
}

// Summarize lists every record in ledger order with its monthly amount and
// the running total.
func Summarize(l *Ledger, period PeriodKey) MonthOverview {
	ov := MonthOverview{Period: period, Total: decimal.Zero, Lines: make([]SummaryLine, 0, len(l.Records))}
	for i, r := range l.Records {
		amt := r.MonthlyAmount()
		ov.Lines = append(ov.Lines, SummaryLine{Position: i + 1, Record: r, Amount: amt})
		ov.Total = ov.Total.Add(amt)
	}
	return ov
}
