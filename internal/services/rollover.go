package services

import (
	"gastos/internal/core"
)

// RolloverResult counts what a rollover pass changed.
type RolloverResult struct {
	Period      core.PeriodKey `json:"period"`
	Decremented int            `json:"decremented"`
	Pruned      int            `json:"pruned"`
	Repaired    int            `json:"repaired"`
}

// Changed reports whether the ledger needs to be saved.
func (r RolloverResult) Changed() bool {
	return r.Decremented > 0 || r.Pruned > 0 || r.Repaired > 0
}

// Rollover advances every installment record to period, decrementing its
// remaining count at most once per period, then drops installment records
// that have nothing left to pay. Running it twice for the same period is a
// no-op. Records already stamped with a later period are left alone, and a
// gap of several months still decrements only once.
//
// Fixed and simple records are never touched. Malformed records are repaired
// in place first.
func Rollover(l *core.Ledger, period core.PeriodKey) RolloverResult {
	res := RolloverResult{Period: period}
	res.Repaired = l.Normalize()

	for i := range l.Records {
		r := &l.Records[i]
		if !r.IsInstallment() || r.LastRollover == period {
			continue
		}
		if r.LastRollover != "" && period.Before(r.LastRollover) {
			continue
		}
		r.InstallmentsRemaining--
		r.LastRollover = period
		res.Decremented++
	}

	kept := l.Records[:0]
	for _, r := range l.Records {
		if r.IsInstallment() && r.InstallmentsRemaining <= 0 {
			res.Pruned++
			continue
		}
		kept = append(kept, r)
	}
	l.Records = kept

	return res
}
