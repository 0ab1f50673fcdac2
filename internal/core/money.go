// Package core provides money parsing and handling utilities.
//
// This file contains the Money type, which keeps amounts as integer cents
// and converts to and from decimal text at the edges.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// maxAmount is the largest accepted amount in currency units. The sum of
// 9000 maximal amounts still fits in int64 cents.
var maxAmount = decimal.New(1, 13)

// NewMoney is a shorthand for Money{Cents: cents}.
func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}

// FromDecimal converts d to cents, rounding half away from zero on the third
// decimal place.
func FromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// ParseAmount converts user text to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Signs and exponents are rejected, zero
// is allowed.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d), nil
}

// ExactAmount converts d to Money without rounding. It rejects negative
// values, values above the entry ceiling and fractions of a cent.
func ExactAmount(d decimal.Decimal) (Money, error) {
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return Money{}, ErrSubCentAmount
	}
	return FromDecimal(d), nil
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a bare JSON number ("4.5", "1000").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	b = bytes.Trim(b, `"`)
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return ErrInvalidAmount
	}
	if d.Abs().GreaterThan(maxAmount) {
		return ErrInvalidAmount
	}
	*m = FromDecimal(d)
	return nil
}
