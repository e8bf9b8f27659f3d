package core

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a stored decimal amount. Values that do not parse count as zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// AddAmounts sums two stored amounts and renders the result with as many
// decimal places as the more precise operand, so "10.50"+"0.50" is "11.00".
func AddAmounts(a, b string) string {
	x, y := ParseAmount(a), ParseAmount(b)
	places := max(-x.Exponent(), -y.Exponent(), 0)
	return x.Add(y).StringFixed(places)
}

// Percent returns part/whole*100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// FormatMoney renders an amount with the currency symbol, thousands separators
// and two decimals, e.g. "$1,234.50".
func FormatMoney(amount decimal.Decimal, currency string) string {
	rounded := amount.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = humanize.Comma(n)
	}
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + CurrencySymbol(currency) + whole + "." + frac
}

// FormatPercent renders a percentage with one decimal and no sign suffix.
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(1)
}
