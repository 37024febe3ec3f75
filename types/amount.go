package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a decimal monetary quantity. Debit and credit amounts on
// posting lines, traces and statements are never negative.
type Amount = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

// NewAmount returns an amount of value scaled by 10^exp,
// e.g. NewAmount(12345, -2) is 123.45.
func NewAmount(value int64, exp int32) Amount {
	return decimal.New(value, exp)
}

// AmountFromInt returns an integral amount.
func AmountFromInt(v int64) Amount {
	return decimal.NewFromInt(v)
}

// ParseAmount parses a canonical decimal string as written by FormatAmount.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return d, nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for literals.
func MustParseAmount(s string) Amount {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatAmount renders an amount in its canonical string form. Equal
// amounts with different scales (1.0 and 1.00) render identically.
func FormatAmount(a Amount) string {
	return a.String()
}

// IsNegative reports whether a is strictly below zero.
func IsNegative(a Amount) bool {
	return a.Sign() < 0
}

// SumAmounts adds all amounts.
func SumAmounts(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
