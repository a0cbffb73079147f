// Package core holds the reward domain types.
//
// This file contains the parsing of purchase amounts from user input.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are plain decimals of bounded size: at most MaxAmountIntegerDigits
// before the separator and MaxAmountFractionDigits after it.
const (
	MaxAmountIntegerDigits  = 15
	MaxAmountFractionDigits = 8
)

// ParseAmount converts a decimal string to an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rejects
// signs, exponents, empty input, oversized values and values that are not
// strictly positive.
//
// Examples:
//
//	ParseAmount("120")    -> 120, nil
//	ParseAmount("100,50") -> 100.5, nil
//	ParseAmount("1e3")    -> 0, ErrMalformedAmount
//	ParseAmount("0")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	// Normalize decimal comma to dot
	normalized := strings.ReplaceAll(s, ",", ".")
	if !isPlainDecimal(normalized) {
		return decimal.Zero, fmt.Errorf("%w %q", ErrMalformedAmount, s)
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q", ErrMalformedAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// isPlainDecimal reports whether s is digits with an optional fraction,
// within the digit limits.
func isPlainDecimal(s string) bool {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) == 0 || len(intPart) > MaxAmountIntegerDigits || !allDigits(intPart) {
		return false
	}
	if hasFrac && (len(frac) == 0 || len(frac) > MaxAmountFractionDigits || !allDigits(frac)) {
		return false
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
