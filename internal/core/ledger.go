package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the ordered collection of all expense records. It is persisted
// and loaded as one document.
type Ledger struct {
	Records []Record `json:"records"`
}

func NewLedger() *Ledger {
	return &Ledger{Records: []Record{}}
}

// Append adds r at the end of the ledger.
func (l *Ledger) Append(r Record) {
	l.Records = append(l.Records, r)
}

// IndexOf returns the position of the record with the given id, or -1.
func (l *Ledger) IndexOf(id string) int {
	for i := range l.Records {
		if l.Records[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) Get(id string) (Record, error) {
	i := l.IndexOf(id)
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return l.Records[i], nil
}

// Delete removes exactly one record, keeping the order of the others.
func (l *Ledger) Delete(id string) (Record, error) {
	i := l.IndexOf(id)
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	removed := l.Records[i]
	l.Records = append(l.Records[:i], l.Records[i+1:]...)
	return removed, nil
}

// UpdateAmount overwrites a record's amount. Installment records get their
// installment amount recomputed from the initial installment count.
func (l *Ledger) UpdateAmount(id string, amount decimal.Decimal) (Record, error) {
	if !amount.IsPositive() {
		return Record{}, ErrInvalidAmount
	}
	i := l.IndexOf(id)
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	r := &l.Records[i]
	r.Amount = amount.Round(2)
	if r.InstallmentCount > 0 {
		r.InstallmentAmount = InstallmentAmount(r.Amount, r.InstallmentCount)
	}
	return *r, nil
}

// Normalize repairs records loaded from older or hand-edited documents so
// later passes never trip over missing fields. It returns how many records
// were touched.
func (l *Ledger) Normalize() int {
	if l.Records == nil {
		l.Records = []Record{}
	}
	repaired := 0
	for i := range l.Records {
		r := &l.Records[i]
		touched := false
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
			touched = true
		}
		if upper := NormalizeLabel(r.Label); upper != r.Label {
			r.Label = upper
			touched = true
		}
		if r.IsInstallment() {
			if r.InstallmentCount <= 0 {
				r.InstallmentCount = max(r.InstallmentsRemaining, 1)
				touched = true
			}
			if r.InstallmentAmount.IsZero() && r.Amount.IsPositive() {
				r.InstallmentAmount = InstallmentAmount(r.Amount, r.InstallmentCount)
				touched = true
			}
		}
		if r.Category.IsFixed() && !r.Permanent {
			r.Permanent = true
			touched = true
		}
		if touched {
			repaired++
		}
	}
	return repaired
}

// Clone returns a deep copy safe to mutate independently.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{Records: make([]Record, len(l.Records))}
	copy(out.Records, l.Records)
	return out
}

func (l *Ledger) Len() int {
	return len(l.Records)
}
