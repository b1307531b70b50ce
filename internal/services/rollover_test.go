package services

import (
	"testing"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

func installment(id string, remaining int, last core.PeriodKey) core.Record {
	return core.Record{
		ID:                    id,
		Owner:                 core.OwnerLeonardo,
		Label:                 "TV",
		Category:              core.CategoryShopping,
		Amount:                decimal.NewFromInt(150),
		Date:                  core.NewDate(2025, 10, 16),
		InstallmentCount:      3,
		InstallmentsRemaining: remaining,
		InstallmentAmount:     decimal.NewFromInt(50),
		LastRollover:          last,
	}
}

func simple(id string, c core.Category) core.Record {
	r := core.Record{
		ID:       id,
		Owner:    core.OwnerLissa,
		Label:    "X",
		Category: c,
		Amount:   decimal.RequireFromString("45.50"),
		Date:     core.NewDate(2025, 10, 16),
	}
	if c.IsFixed() {
		r.Permanent = true
	}
	return r
}

func TestRollover(t *testing.T) {
	tests := []struct {
		name            string
		records         []core.Record
		period          core.PeriodKey
		wantIDs         []string
		wantRemaining   map[string]int
		wantDecremented int
		wantPruned      int
	}{
		{
			name:          "same period is a no-op",
			records:       []core.Record{installment("a", 3, "2025-10")},
			period:        "2025-10",
			wantIDs:       []string{"a"},
			wantRemaining: map[string]int{"a": 3},
		},
		{
			name:            "next period decrements once",
			records:         []core.Record{installment("a", 3, "2025-10")},
			period:          "2025-11",
			wantIDs:         []string{"a"},
			wantRemaining:   map[string]int{"a": 2},
			wantDecremented: 1,
		},
		{
			name:            "skipped months still decrement by one",
			records:         []core.Record{installment("a", 3, "2025-10")},
			period:          "2026-03",
			wantIDs:         []string{"a"},
			wantRemaining:   map[string]int{"a": 2},
			wantDecremented: 1,
		},
		{
			name:            "last installment is pruned",
			records:         []core.Record{simple("s", core.CategoryFuel), installment("a", 1, "2025-10"), simple("f", core.CategoryFixed)},
			period:          "2025-11",
			wantIDs:         []string{"s", "f"},
			wantDecremented: 1,
			wantPruned:      1,
		},
		{
			name:          "later stamp is left alone",
			records:       []core.Record{installment("a", 2, "2025-12")},
			period:        "2025-11",
			wantIDs:       []string{"a"},
			wantRemaining: map[string]int{"a": 2},
		},
		{
			name:            "missing stamp counts as due",
			records:         []core.Record{installment("a", 2, "")},
			period:          "2025-11",
			wantIDs:         []string{"a"},
			wantRemaining:   map[string]int{"a": 1},
			wantDecremented: 1,
		},
		{
			name:       "already exhausted record is pruned without decrement",
			records:    []core.Record{installment("a", 0, "2025-11")},
			period:     "2025-11",
			wantIDs:    []string{},
			wantPruned: 1,
		},
		{
			name:    "fixed and simple records are never touched",
			records: []core.Record{simple("s", core.CategorySnacks), simple("f", core.CategoryFixed), simple("m", core.CategoryMarket)},
			period:  "2026-01",
			wantIDs: []string{"s", "f", "m"},
		},
		{
			name:    "empty ledger",
			records: nil,
			period:  "2025-11",
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &core.Ledger{Records: tt.records}
			res := Rollover(l, tt.period)

			if res.Decremented != tt.wantDecremented {
				t.Errorf("Decremented = %d, want %d", res.Decremented, tt.wantDecremented)
			}
			if res.Pruned != tt.wantPruned {
				t.Errorf("Pruned = %d, want %d", res.Pruned, tt.wantPruned)
			}
			if len(l.Records) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(l.Records), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if l.Records[i].ID != id {
					t.Errorf("record %d = %q, want %q", i, l.Records[i].ID, id)
				}
			}
			for id, want := range tt.wantRemaining {
				r, err := l.Get(id)
				if err != nil {
					t.Fatalf("Get(%q): %v", id, err)
				}
				if r.InstallmentsRemaining != want {
					t.Errorf("%s remaining = %d, want %d", id, r.InstallmentsRemaining, want)
				}
				if r.InstallmentsRemaining > 0 && tt.wantDecremented > 0 && r.LastRollover != tt.period {
					t.Errorf("%s last rollover = %q, want %q", id, r.LastRollover, tt.period)
				}
			}
		})
	}
}

func TestRollover_Idempotent(t *testing.T) {
	l := &core.Ledger{Records: []core.Record{installment("a", 3, "2025-10")}}

	first := Rollover(l, "2025-11")
	second := Rollover(l, "2025-11")

	if first.Decremented != 1 {
		t.Errorf("first pass decremented %d", first.Decremented)
	}
	if second.Changed() {
		t.Errorf("second pass should change nothing, got %+v", second)
	}
	if l.Records[0].InstallmentsRemaining != 2 {
		t.Errorf("remaining = %d, want 2", l.Records[0].InstallmentsRemaining)
	}
}

func TestRollover_FullLifecycle(t *testing.T) {
	l := &core.Ledger{Records: []core.Record{installment("a", 3, "2025-10")}}

	// Shown in October, November and December, gone in January.
	for _, p := range []core.PeriodKey{"2025-11", "2025-12"} {
		Rollover(l, p)
		if l.Len() != 1 {
			t.Fatalf("record pruned too early at %s", p)
		}
	}
	res := Rollover(l, "2026-01")
	if res.Pruned != 1 || l.Len() != 0 {
		t.Errorf("expected record pruned in 2026-01, result %+v len %d", res, l.Len())
	}
}

func TestRollover_RepairsMalformed(t *testing.T) {
	broken := installment("", 2, "2025-10")
	broken.InstallmentCount = 0
	broken.InstallmentAmount = decimal.Zero
	l := &core.Ledger{Records: []core.Record{broken}}

	res := Rollover(l, "2025-10")

	if res.Repaired != 1 {
		t.Errorf("Repaired = %d, want 1", res.Repaired)
	}
	r := l.Records[0]
	if r.ID == "" || r.InstallmentCount <= 0 || r.InstallmentAmount.IsZero() {
		t.Errorf("record not repaired: %+v", r)
	}
}
