// Package money holds the fixed-precision amount helpers used for every
// balance and ledger value. Amounts are shopspring decimals rounded to Scale
// places so repeated accruals never drift the way float64 sums do.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for stored amounts.
const Scale int32 = 8

// DaysPerYear is the simple-interest day count basis.
const DaysPerYear = 365

// Currency is a supported stablecoin symbol.
type Currency string

const (
	USDT Currency = "USDT"
	USDC Currency = "USDC"
)

// Currencies lists every accepted currency.
var Currencies = []Currency{USDT, USDC}

func (c Currency) Valid() bool {
	for _, cur := range Currencies {
		if c == cur {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes s; an empty string yields fallback.
func ParseCurrency(s string, fallback Currency) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return fallback, nil
	}
	c := Currency(s)
	if !c.Valid() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

// Parse reads a decimal amount from its string form and rounds it to Scale.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Round(d), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round truncates precision to Scale using half-up rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// IsPositive reports whether d > 0.
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// Sum adds all amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// DailyInterest is principal × (annualRatePercent / 100) / 365 rounded to Scale.
func DailyInterest(principal, annualRatePercent decimal.Decimal) decimal.Decimal {
	return PeriodInterest(principal, annualRatePercent, 1)
}

// PeriodInterest is the simple, non-compounding interest for days days.
func PeriodInterest(principal, annualRatePercent decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return Round(principal.
		Mul(annualRatePercent).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(100 * DaysPerYear)))
}

// Percent returns part/whole × 100, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole).Round(2)
}
