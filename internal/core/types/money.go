// Package types provides common value types shared across the domain.
package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of fraction digits carried by Money.
// All amounts are RSD fixed-point values with two decimals; comparisons are
// exact, never epsilon-based.
const moneyScale = 2

// Money is a fixed-point monetary value with two fraction digits.
// It wraps decimal.Decimal so that arithmetic stays exact; every constructor
// and operation normalizes to two decimals.
//
// JSON form is a number with exactly two fraction digits (e.g. 1200.00).
type Money struct {
	dec decimal.Decimal
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{dec: decimal.Zero}
}

// NewMoneyFromString parses a Money value from its decimal string form.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money: %w", err)
	}
	return Money{dec: d.Round(moneyScale)}, nil
}

// MustMoney parses a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	m, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal creates Money from a decimal, rounding to two digits.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{dec: d.Round(moneyScale)}
}

// MoneyFromInt creates Money from a whole major-unit amount.
func MoneyFromInt(v int64) Money {
	return Money{dec: decimal.NewFromInt(v)}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{dec: m.dec.Add(o.dec)}
}

// Sub returns m − o.
func (m Money) Sub(o Money) Money {
	return Money{dec: m.dec.Sub(o.dec)}
}

// Neg returns −m.
func (m Money) Neg() Money {
	return Money{dec: m.dec.Neg()}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	return Money{dec: m.dec.Abs()}
}

// MulPercent returns m × percent/100, rounded to two digits.
// Used for VAT computation and proportional deduction.
func (m Money) MulPercent(percent decimal.Decimal) Money {
	return Money{dec: m.dec.Mul(percent).Div(decimal.NewFromInt(100)).Round(moneyScale)}
}

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.dec.Cmp(o.dec)
}

// Equal reports exact equality.
func (m Money) Equal(o Money) bool {
	return m.dec.Equal(o.dec)
}

// GreaterThan reports m > o.
func (m Money) GreaterThan(o Money) bool {
	return m.dec.GreaterThan(o.dec)
}

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool {
	return m.dec.LessThan(o.dec)
}

// IsZero reports m == 0.
func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// IsPositive reports m > 0.
func (m Money) IsPositive() bool {
	return m.dec.IsPositive()
}

// IsNegative reports m < 0.
func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

// String returns the decimal string with exactly two fraction digits.
func (m Money) String() string {
	return m.dec.StringFixed(moneyScale)
}

// MarshalJSON encodes Money as a JSON number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.dec.StringFixed(moneyScale)), nil
}

// UnmarshalJSON accepts either a JSON number or a string and normalizes
// to two fraction digits.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.dec = decimal.Zero
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := NewMoneyFromString(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	parsed, err := NewMoneyFromString(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer for database storage (NUMERIC column).
func (m Money) Value() (driver.Value, error) {
	return m.dec.Value()
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return err
	}
	m.dec = d.Round(moneyScale)
	return nil
}

// SumMoney adds a slice of amounts.
func SumMoney(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.dec)
	}
	return Money{dec: total}
}
