package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRUB formats an amount like "12 500 ₽" or "12 500,50 ₽".
// Uses a space as thousands separator and a comma before kopecks.
func FormatRUB(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	amount = amount.Abs().Round(2)

	whole := amount.Truncate(0)
	frac := amount.Sub(whole).Mul(decimal.NewFromInt(100)).IntPart()

	s := whole.String()
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 8)
	if neg {
		b.WriteString("-")
	}

	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(' ')
		b.WriteString(s[i : i+3])
	}

	if frac > 0 {
		b.WriteByte(',')
		if frac < 10 {
			b.WriteByte('0')
		}
		b.WriteString(decimal.NewFromInt(frac).String())
	}
	b.WriteString(" ₽")
	return b.String()
}

// ToMinorUnits converts rubles to kopecks for payment gateways.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
