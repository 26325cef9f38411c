// Package core provides the expenditure domain: price inference, records
// and aggregation.
//
// This file contains helpers for parsing and formatting the decimal
// amounts that flow through the log.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for every stored amount.
const Scale = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// divisionPrecision bounds the digits kept by divisions before the final
// rounding to Scale.
const divisionPrecision = 16

// Round2 rounds d to two decimal places, half away from zero.
//
// Examples:
//
//	Round2(12.345) -> 12.35
//	Round2(12.344) -> 12.34
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// FormatAmount renders d with up to two decimal places, trailing zeros
// trimmed ("80", "80.5", "80.25").
func FormatAmount(d decimal.Decimal) string {
	return Round2(d).String()
}

// ParseAmount converts user text to an optional decimal.
//
// Blank input means "not provided" and returns (nil, nil). Both dot (12.34)
// and comma (12,34) decimal separators are accepted. Signs, exponents and
// any non-digit characters are rejected with a *ValidationError naming field.
func ParseAmount(field, s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return nil, invalid(field, "malformed number "+s)
	}
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.':
		default:
			return nil, invalid(field, "must be a non-negative number")
		}
	}
	if digits == 0 {
		return nil, invalid(field, "malformed number "+s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, invalid(field, err.Error())
	}
	return &d, nil
}

// Amount is a convenience for building optional inputs from literals.
func Amount(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
