package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every UCoin amount.
const MoneyScale = 2

// Money quantizes d to MoneyScale digits using half-even rounding.
// Every amount is passed through Money before it is stored or compared.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// ParseAmount parses a decimal string (e.g. "100", "30.5", "10.01") into a
// quantized amount. Binary floating point is never involved.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return Money(d), nil
}

// FormatMoney renders an amount with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return Money(d).StringFixed(MoneyScale)
}
