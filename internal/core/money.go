// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and unit representations.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to Money with half-up rounding to
// the cent.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// allowed (a goal may legitimately be at 0); negative values and garbage
// are rejected with a ValidationError naming field.
//
// Examples:
//
//	ParseAmount("amount", "12.34")  -> 1234 cents
//	ParseAmount("amount", "12,345") -> 1235 cents
//	ParseAmount("amount", "-1")     -> error
func ParseAmount(field, s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, Invalid(field, ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, Invalid(field, ErrInvalidAmount)
	}
	return checkedAmount(field, d)
}

const maxCents = (1<<63 - 1) / 100

// checkedAmount rounds d half-up to the cent, rejecting negative values and
// values whose cents would not fit in an int64.
func checkedAmount(field string, d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, Invalid(field, ErrNegativeAmount)
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, Invalid(field, ErrInvalidAmount)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FromDecimal converts an already-parsed decimal amount to Money.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

// Decimal returns the amount in currency units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Units returns the amount in currency units as a float64 for display and
// charting. Use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
