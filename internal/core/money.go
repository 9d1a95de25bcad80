// Package core defines the ledger domain: accounts, envelopes, savings plans,
// ledger entries and the rules that classify them.
//
// This file holds money helpers. Amounts are shopspring decimals end to end.
// Values coming from users are parsed with ParseAmount, which accepts both dot
// and comma separators and rounds half-up to cents.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a user supplied decimal string to a positive amount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35 (half-up)
//	ParseAmount("-1")     -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalidAmount("amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, invalidAmount("amount must be positive")
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, invalidAmount("malformed amount")
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, invalidAmount("malformed amount")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalidAmount("malformed amount")
	}
	d = RoundMoney(d)
	if !d.IsPositive() {
		return decimal.Zero, invalidAmount("amount must be positive")
	}
	return d, nil
}

// ValidateAmount rejects zero and negative amounts before any mutation.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return invalidAmount("amount must be positive")
	}
	return nil
}

// RoundMoney rounds half away from zero to two decimals.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns part/whole*100 rounded to the given places, or zero when
// whole is not positive.
func Percent(part, whole decimal.Decimal, places int32) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(places)
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func invalidAmount(reason string) error {
	return &ValidationError{Field: "amount", Reason: reason}
}
