package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for currency amounts.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to two places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// PercentOf returns round(amount * percent / 100, 2).
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(percent).Div(hundred))
}

// FractionOf returns round(amount * fraction, 2).
func FractionOf(amount, fraction decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(fraction))
}

// MonthlyROI is one period's interest on principal at ratePercent per month.
func MonthlyROI(principal, ratePercent decimal.Decimal) decimal.Decimal {
	if !principal.IsPositive() || !ratePercent.IsPositive() {
		return decimal.Zero
	}
	return PercentOf(principal, ratePercent)
}

// ParseMoney parses a decimal string and rejects more than two fractional
// digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(RoundMoney(d)) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: at most %d decimal places", s, MoneyScale)
	}
	return d, nil
}

// FormatNaira renders an amount for human-facing messages.
func FormatNaira(d decimal.Decimal) string {
	return "₦" + d.StringFixed(MoneyScale)
}
