// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts and installment
// counts typed by users in chat, and for formatting amounts back.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string typed by a user into a positive
// amount rounded to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional "R$" prefix, and performs half-up rounding on the third decimal
// place. Returns ErrInvalidAmount for invalid formats, signs, exponents or
// non-positive values.
//
// Examples:
//
//	ParseAmount("150")     -> 150.00, nil
//	ParseAmount("45,50")   -> 45.50, nil
//	ParseAmount("12.345")  -> 12.35, nil
//	ParseAmount("R$ 9,99") -> 9.99, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "R$"), "r$"))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" {
		parts[0] = "0"
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	d, err := decimal.NewFromString(strings.Join(parts, "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseInstallmentCount reads an integer typed by a user. It only checks the
// format; range checks belong to BuildRecord.
func ParseInstallmentCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotAnInteger, s)
	}
	return n, nil
}

// FormatMoney renders an amount as "R$ 1234.50".
func FormatMoney(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}
