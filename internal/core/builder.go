package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draft holds the fields a dialog collected before a record is built.
type Draft struct {
	Owner        Owner
	Category     Category
	Amount       decimal.Decimal
	Label        string
	Installments int
}

// BuildRecord turns a completed draft into a new ledger record.
// It never touches a ledger; callers append the result.
func BuildRecord(d Draft, now time.Time) (Record, error) {
	if err := d.Owner.Validate(); err != nil {
		return Record{}, err
	}
	if err := d.Category.Validate(); err != nil {
		return Record{}, err
	}
	if !d.Amount.IsPositive() {
		return Record{}, ErrInvalidAmount
	}

	r := Record{
		ID:       uuid.NewString(),
		Owner:    d.Owner,
		Label:    NormalizeLabel(d.Label),
		Category: d.Category,
		Amount:   d.Amount.Round(2),
		Date:     DateOf(now),
	}

	switch {
	case d.Category.IsInstallment():
		if d.Installments <= 0 {
			return Record{}, ErrInvalidInstallmentCount
		}
		r.InstallmentCount = d.Installments
		r.InstallmentsRemaining = d.Installments
		r.InstallmentAmount = InstallmentAmount(r.Amount, d.Installments)
		r.LastRollover = PeriodOf(now)
	case d.Category.IsFixed():
		if r.Label == "" {
			return Record{}, ErrEmptyLabel
		}
		r.Permanent = true
	}

	return r, nil
}

// InstallmentAmount splits total into count payments rounded to cents.
func InstallmentAmount(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return total
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), 2)
}

func NormalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
