// Package core holds the shared domain types and money arithmetic.
//
// All storage and computation use integer cents; floating point appears
// only at presentation boundaries, rounded to two decimals.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts a decimal amount string to signed integer
// cents with half-up rounding on the third decimal place.
//
// Accepted forms: an optional leading minus, dot decimal separator, and
// at most one decimal point. Currency symbols and thousands separators
// must be stripped by the caller.
//
// Examples:
//
//	ParseAmountToCents("12.34")  -> 1234, nil
//	ParseAmountToCents("-12.5")  -> -1250, nil
//	ParseAmountToCents("12.345") -> 1235, nil (rounds up)
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// Take the first two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if negative {
		cents = -cents
	}
	return cents, nil
}

// CentsToAmount converts integer cents to a major-unit amount rounded to
// two decimals.
func CentsToAmount(cents int64) float64 {
	return RoundAmount(float64(cents) / 100.0)
}

// RoundAmount rounds a major-unit amount to two decimals, half away from
// zero at the boundary.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
