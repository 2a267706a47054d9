// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// The system is single-currency; amounts carry no currency code.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundToUnit rounds to the nearest whole currency unit (half away from zero).
// Invoice grand totals are stored as whole units; the residual against the
// unrounded sum is reported to the caller as the rounding adjustment.
func RoundToUnit(m Money) Money {
	return m.Round(0)
}

// PercentMultiplier returns 1 + p/100 for a percentage p.
func PercentMultiplier(p Money) Money {
	return decimal.New(1, 0).Add(p.Div(decimal.New(100, 0)))
}

// TaxMultiplier returns the combined multiplier for two additive tax rates,
// 1 + (taxRate + extraTaxRate)/100.
func TaxMultiplier(taxRate, extraTaxRate Money) Money {
	return PercentMultiplier(taxRate.Add(extraTaxRate))
}
