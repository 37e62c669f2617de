package cli

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	minMinor = decimal.NewFromInt(math.MinInt64)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// FormatAmount renders amount in the given ISO currency, e.g. "$1,234.50"
// or "-€12,00". Unknown currency codes fall back to a plain decimal string
// followed by the code, as do amounts with digits below the currency's
// minor unit or outside the int64 range of minor units.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}

	factor := decimal.NewFromInt(10).Pow(decimal.NewFromInt(int64(cur.Fraction)))
	minor := amount.Mul(factor)
	if !minor.IsInteger() {
		return amount.String() + " " + cur.Code
	}
	if minor.LessThan(minMinor) || minor.GreaterThan(maxMinor) {
		return amount.StringFixed(int32(cur.Fraction)) + " " + cur.Code
	}
	return money.New(minor.IntPart(), cur.Code).Display()
}

// StyleAmount formats amount and colors it by sign.
func StyleAmount(amount decimal.Decimal, currency string) string {
	text := FormatAmount(amount, currency)
	switch {
	case amount.IsNegative():
		return DebitStyle.Render(text)
	case amount.IsPositive():
		return CreditStyle.Render(text)
	default:
		return SubtleStyle.Render(text)
	}
}
