package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OwnerLissa    Owner = "lissa"
	OwnerLeonardo Owner = "leonardo"
	OwnerJoint    Owner = "nosso"
)

const (
	CategoryMarket        Category = "market"
	CategoryVirtual       Category = "virtual"
	CategoryEntertainment Category = "entertainment"
	CategoryFuel          Category = "fuel"
	CategoryFixed         Category = "fixed"
	CategoryShopping      Category = "shopping"
	CategorySnacks        Category = "snacks"
)

const (
	dateLayout   = "2006-01-02"
	periodLayout = "2006-01"
)

type (
	// Owner tags who made an expense.
	Owner string

	// Category classifies an expense. Installment categories split a purchase
	// across monthly payments.
	Category string

	// PeriodKey identifies a calendar month as "YYYY-MM".
	PeriodKey string

	Date struct {
		time.Time
	}

	// Record is one ledger entry. For installment categories Amount holds the
	// purchase total.
	Record struct {
		ID                    string          `json:"id"`
		Owner                 Owner           `json:"owner"`
		Label                 string          `json:"label"`
		Category              Category        `json:"category"`
		Amount                decimal.Decimal `json:"amount"`
		Date                  Date            `json:"date"`
		InstallmentCount      int             `json:"installment_count,omitempty"`
		InstallmentsRemaining int             `json:"installments_remaining,omitempty"`
		InstallmentAmount     decimal.Decimal `json:"installment_amount"`
		LastRollover          PeriodKey       `json:"last_rollover,omitempty"`
		Permanent             bool            `json:"permanent,omitempty"`
	}
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidInstallmentCount = errors.New("must be a valid installment count")
	ErrNotAnInteger            = errors.New("not an integer")
	ErrEmptyLabel              = errors.New("empty label")
	ErrUnknownOwner            = errors.New("unknown owner")
	ErrUnknownCategory         = errors.New("unknown category")
	ErrMissingPrecondition     = errors.New("missing precondition")
	ErrRecordNotFound          = errors.New("record not found")
	ErrInvalidPeriod           = errors.New("invalid period key")
)

// Owners lists the household members in display order, joint last.
var Owners = []Owner{OwnerLissa, OwnerLeonardo, OwnerJoint}

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMarket,
	CategoryVirtual,
	CategoryEntertainment,
	CategoryFuel,
	CategoryFixed,
	CategoryShopping,
	CategorySnacks,
}

var ownerNames = map[Owner]string{
	OwnerLissa:    "Lissa",
	OwnerLeonardo: "Leonardo",
	OwnerJoint:    "Nosso",
}

var categoryLabels = map[Category]string{
	CategoryMarket:        "🛒 Mercado",
	CategoryVirtual:       "💳 Gasto Virtual",
	CategoryEntertainment: "🎉 Diversão",
	CategoryFuel:          "⛽ Posto de Gasolina",
	CategoryFixed:         "💼 Gasto Fixo",
	CategoryShopping:      "🛍️ Compras",
	CategorySnacks:        "🍔 Comidinhas",
}

// ParseOwner accepts an owner tag or display name, case-insensitively.
func ParseOwner(s string) (Owner, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range Owners {
		if s == string(o) || s == strings.ToLower(ownerNames[o]) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOwner, s)
}

func (o Owner) Validate() error {
	if _, ok := ownerNames[o]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOwner, string(o))
	}
	return nil
}

// DisplayName returns the human name, or the raw tag for unknown owners.
func (o Owner) DisplayName() string {
	if name, ok := ownerNames[o]; ok {
		return name
	}
	if o == "" {
		return "-"
	}
	return string(o)
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Category) Validate() error {
	if _, ok := categoryLabels[c]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return nil
}

// IsInstallment reports whether entries of this category are paid in installments.
func (c Category) IsInstallment() bool {
	return c == CategoryVirtual || c == CategoryShopping
}

func (c Category) IsFixed() bool {
	return c == CategoryFixed
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// PeriodOf returns the period key of t in t's location.
func PeriodOf(t time.Time) PeriodKey {
	return PeriodKey(t.Format(periodLayout))
}

func (p PeriodKey) Validate() error {
	if _, err := time.Parse(periodLayout, string(p)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}
	return nil
}

// Before reports whether p is an earlier month than other. Both keys must be valid.
func (p PeriodKey) Before(other PeriodKey) bool {
	return string(p) < string(other)
}

func (p PeriodKey) String() string {
	return string(p)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}

// IsInstallment reports whether the record is an installment purchase.
func (r Record) IsInstallment() bool {
	return r.Category.IsInstallment()
}

// MonthlyAmount is what the record costs in the current month: the
// installment for installment purchases, the plain amount otherwise.
func (r Record) MonthlyAmount() decimal.Decimal {
	if r.IsInstallment() {
		return r.InstallmentAmount
	}
	return r.Amount
}

// PeriodOrDate returns the rollover period for installment records and the
// creation date for everything else.
func (r Record) PeriodOrDate() string {
	if r.IsInstallment() && r.LastRollover != "" {
		return string(r.LastRollover)
	}
	return r.Date.String()
}

func (r Record) Validate() error {
	if err := r.Owner.Validate(); err != nil {
		return err
	}
	if err := r.Category.Validate(); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.Category.IsFixed() && strings.TrimSpace(r.Label) == "" {
		return ErrEmptyLabel
	}
	if r.IsInstallment() {
		if r.InstallmentCount <= 0 {
			return ErrInvalidInstallmentCount
		}
		if err := r.LastRollover.Validate(); err != nil {
			return err
		}
	}
	return nil
}
